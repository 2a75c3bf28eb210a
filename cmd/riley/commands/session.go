// Package commands implements CLI command handlers for riley.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/riley/pkg/config"
	"github.com/Sumatoshi-tech/riley/pkg/observability"
	"github.com/Sumatoshi-tech/riley/pkg/version"
)

type configLoader func(path string) (*config.Config, error)

type observabilityInit func(cfg observability.Config) (observability.Providers, error)

// session carries the loaded configuration and telemetry for one command run.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	metrics   *observability.CommandMetrics
	logger    *slog.Logger
	started   time.Time
	command   string
}

func startSession(
	cmd *cobra.Command,
	command string,
	configPath string,
	loadConfig configLoader,
	initObs observabilityInit,
	override func(*config.Config),
) (*session, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if override != nil {
		override(cfg)

		err = cfg.Validate()
		if err != nil {
			return nil, fmt.Errorf("validate flags: %w", err)
		}
	}

	obsCfg := cfg.Observability()
	obsCfg.ServiceVersion = version.Version
	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := initObs(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewCommandMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	cmd.SetContext(observability.ContextWithCommand(cmd.Context(), command))

	return &session{
		cfg:       cfg,
		providers: providers,
		metrics:   metrics,
		logger:    providers.Logger,
		started:   time.Now(),
		command:   command,
	}, nil
}

// finish records the command outcome and flushes telemetry. runErr is
// returned as is unless shutdown also fails.
func (s *session) finish(ctx context.Context, runErr error) error {
	status := observability.StatusOK
	if runErr != nil {
		status = observability.StatusError
		s.logger.ErrorContext(ctx, "command failed", "error", runErr)
	}

	s.metrics.RecordRun(ctx, s.command, status, time.Since(s.started))

	shutdownErr := s.providers.Shutdown(context.WithoutCancel(ctx))
	if shutdownErr == nil {
		return runErr
	}

	return errors.Join(runErr, fmt.Errorf("shutdown observability: %w", shutdownErr))
}
