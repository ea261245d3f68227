package app

import (
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/config"
)

// NewNewRelicApp starts the New Relic agent when enabled. It returns nil
// when disabled or when the agent cannot start; callers treat nil as
// "no instrumentation".
func NewNewRelicApp(cfg config.NewRelicConfig, log zerolog.Logger) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize New Relic")
		return nil
	}

	log.Info().Str("app", cfg.AppName).Msg("New Relic enabled")
	return nrApp
}
