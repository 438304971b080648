package main

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/pearcec/calagent/internal/agent"
	"github.com/pearcec/calagent/internal/config"
	"github.com/pearcec/calagent/internal/gcal"
	"github.com/pearcec/calagent/internal/gemini"
	"github.com/pearcec/calagent/internal/ics"
	"github.com/pearcec/calagent/internal/logging"
)

// app bundles what a command needs once configuration is resolved.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	svc     *agent.Service
	closers []io.Closer
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if zoneFlag != "" {
		cfg.Timezone = zoneFlag
	}
	return cfg, cfg.Validate()
}

// newApp wires provider, model and service. interactive allows the OAuth
// browser flow when no token is stored yet.
func newApp(ctx context.Context, interactive bool, out io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger}

	var provider agent.Provider
	if icsPath != "" {
		provider = ics.NewSource(config.ExpandPath(icsPath), logger)
	} else {
		client, err := gcal.Open(ctx, cfg, interactive, out, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client)
		provider = client
	}

	var model agent.Model
	client, err := gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
	switch {
	case errors.Is(err, gemini.ErrNoAPIKey):
		logger.Debug("gemini disabled: no API key")
	case err != nil:
		a.Close()
		return nil, err
	default:
		a.closers = append(a.closers, client)
		model = client
	}

	a.svc = agent.New(provider, model,
		agent.WithLogger(logger),
		agent.WithDefaultZone(cfg.Timezone),
		agent.WithAnalysisDays(cfg.Gemini.AnalysisDays),
	)
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		c.Close()
	}
	a.log.Sync()
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
