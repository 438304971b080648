package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pearcec/calagent/internal/config"
	"github.com/pearcec/calagent/internal/gcal"
	"github.com/pearcec/calagent/internal/logging"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Google Calendar access",
	Long: `Run the OAuth consent flow and store the resulting token.

Requires the OAuth client file downloaded from the Google Cloud console
(google.credentials_file, default credentials.json). The token is kept in
the configured token store and refreshed automatically afterwards.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	oauthCfg, err := gcal.LoadOAuthConfig(config.ExpandPath(cfg.Google.CredentialsFile), cfg.Google.CallbackPort)
	if err != nil {
		return err
	}
	store, err := gcal.OpenStore(cfg.Google)
	if err != nil {
		return err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		defer c.Close()
	}

	out := cmd.OutOrStdout()
	if _, err := gcal.Authorize(cmd.Context(), oauthCfg, store, out, logger); err != nil {
		return err
	}
	fmt.Fprintf(out, "Authorized. Token saved to the %s store.\n", cfg.Google.TokenStore)
	return nil
}
