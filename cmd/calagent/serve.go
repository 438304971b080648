package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pearcec/calagent/internal/briefing"
	"github.com/pearcec/calagent/internal/server"
)

var (
	serveListen    string
	servePublicURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the calendar agent over HTTP:

  GET  /health                  Liveness check
  GET  /.well-known/agent.json  Agent card
  GET  /events                  Upcoming events (?max_results=N&timezone=Z)
  GET  /today                   Today's events
  POST /freebusy                Busy periods for a date range
  POST /ai-query                Ask Gemini about the calendar
  POST /ai-analytics            Run a prompt over supplied data

The server never starts the OAuth browser flow; run "calagent auth" first.
Stops cleanly on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&servePublicURL, "public-url", "", "URL advertised in the agent card")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, false, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Briefing.Enabled {
		b, err := briefing.New(briefingConfig(a.cfg), a.svc, a.log)
		if err != nil {
			return err
		}
		if err := b.Start(); err != nil {
			return err
		}
		defer b.Stop()
	}

	listen := a.cfg.Server.Listen
	if serveListen != "" {
		listen = serveListen
	}

	srv := server.New(server.Config{
		Listen:      listen,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		PublicURL:   servePublicURL,
		Version:     Version,
	}, a.svc, a.log)

	a.log.Info("calagent serving",
		zap.String("listen", listen),
		zap.String("timezone", a.svc.DefaultZone()),
		zap.Bool("briefing", a.cfg.Briefing.Enabled))
	return srv.Run(ctx)
}
