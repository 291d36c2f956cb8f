package cmd

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"categorical/core/categorical"
	"categorical/core/engine"
	"categorical/core/output"
	"categorical/core/scenario"
	"categorical/internal/config"
	"categorical/internal/errors"
	"categorical/internal/logging"
)

// runOptions are the per-invocation overrides shared by eval and dice
type runOptions struct {
	format      string
	weights     string
	renormalize bool
	only        []string
}

// evaluate runs a scenario with the configured arithmetic and renders the report to w
func evaluate(ctx context.Context, w io.Writer, s *scenario.Scenario, opts runOptions) error {
	cfg := *config.Get()
	if opts.weights != "" {
		cfg.Weights.Kind = opts.weights
	}
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.renormalize {
		cfg.Weights.Renormalize = true
	}

	formatter, err := output.DefaultRegistry(cfg.Output.Precision).Get(output.Format(cfg.Output.Format))
	if err != nil {
		return err
	}

	options := engine.Options{
		Tolerance:   cfg.Weights.Tolerance,
		Renormalize: cfg.Weights.Renormalize,
	}
	logger := logging.Named("engine")

	start := time.Now()
	var report *output.Report
	switch cfg.Weights.Kind {
	case config.WeightsFloat:
		report, err = run(ctx, engine.New(categorical.Float64, nil, options, logger), s, cfg.Weights.Kind)
	case config.WeightsDecimal:
		field := categorical.NewDecimalField(cfg.Weights.DivisionPrecision)
		report, err = run(ctx, engine.New[decimal.Decimal](field, nil, options, logger), s, cfg.Weights.Kind)
	default:
		return errors.NotSupported("weights kind " + cfg.Weights.Kind)
	}
	if err != nil {
		return err
	}
	report.Metadata.Duration = time.Since(start).String()

	logging.Debug("scenario evaluated",
		zap.String("source", s.Source.Name),
		zap.String("weights", cfg.Weights.Kind),
		zap.Int("distributions", len(report.Distributions)),
		zap.String("duration", report.Metadata.Duration))

	return formatter.Render(w, report.Only(opts.only...))
}

func run[P any](ctx context.Context, e *engine.Engine[P], s *scenario.Scenario, weights string) (*output.Report, error) {
	res, err := e.Evaluate(ctx, s)
	if err != nil {
		return nil, err
	}
	return res.Report(weights, Version), nil
}
