package latexcalc

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/njchilds90/latexcalc/internal/engine"
	"github.com/njchilds90/latexcalc/internal/normalize"
	"github.com/njchilds90/latexcalc/internal/render"
)

// Config holds the calculator's read-only settings.
type Config struct {
	// Precision is the number of significant digits of approximate results.
	Precision int
	// Timeout bounds each call. Zero means no deadline beyond the caller's
	// context.
	Timeout time.Duration

	// NumericSolve lets solve fall back to root finding.
	NumericSolve  bool
	NumericRange  float64
	Tolerance     float64
	MaxIterations int

	// AllowNumericIntegration lets definite integrals without a closed
	// form fall back to quadrature.
	AllowNumericIntegration bool

	// DomainPolicy is "permissive" or "strict".
	DomainPolicy string
	// StrictVariables refuses to guess the variable of integrate, limit and
	// solve when there are several candidates.
	StrictVariables bool
}

// DefaultConfig returns the settings used by New without options.
func DefaultConfig() Config {
	ec := engine.DefaultConfig()
	return Config{
		Precision:     render.DefaultDigits,
		Timeout:       ec.Timeout,
		NumericSolve:  ec.NumericSolve,
		NumericRange:  ec.NumericRange,
		Tolerance:     ec.Tolerance,
		MaxIterations: ec.MaxIterations,
		DomainPolicy:  normalize.Permissive.String(),
	}
}

// Validate reports settings the calculator cannot run with.
func (c Config) Validate() error {
	if c.Precision < 1 || c.Precision > 17 {
		return fmt.Errorf("precision must be between 1 and 17 digits, got %d", c.Precision)
	}
	if _, err := normalize.ParsePolicy(c.DomainPolicy); err != nil {
		return err
	}
	return c.engineConfig().Validate()
}

func (c Config) engineConfig() engine.Config {
	return engine.Config{
		Timeout:                 c.Timeout,
		NumericSolve:            c.NumericSolve,
		NumericRange:            c.NumericRange,
		Tolerance:               c.Tolerance,
		MaxIterations:           c.MaxIterations,
		AllowNumericIntegration: c.AllowNumericIntegration,
		StrictVariables:         c.StrictVariables,
	}
}

// Observer is told about every finished call. err is nil on success.
type Observer interface {
	Observe(op string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) Observe(string, time.Duration, error) {}

// Option configures a Calculator.
type Option func(*Calculator)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Calculator) { c.cfg = cfg }
}

// WithLogger sets the logger. Calls are logged at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(c *Calculator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver registers an observer, typically prometheus collectors.
func WithObserver(obs Observer) Option {
	return func(c *Calculator) {
		if obs != nil {
			c.obs = obs
		}
	}
}

// WithPrecision sets the significant digits of approximate results.
func WithPrecision(digits int) Option {
	return func(c *Calculator) { c.cfg.Precision = digits }
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Calculator) { c.cfg.Timeout = d }
}
