package engine

import (
	"fmt"
	"time"
)

// Config tunes the adapter. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	// Timeout bounds every operation. Zero disables the guard's deadline.
	Timeout time.Duration

	// NumericSolve enables root scanning when an equation has no closed form.
	NumericSolve bool
	// NumericRange is the half width of the interval scanned for roots.
	NumericRange float64
	// Tolerance is the absolute residual accepted by bisection, Newton and
	// limit probing.
	Tolerance float64
	// MaxIterations caps each Newton or bisection run.
	MaxIterations int

	// AllowNumericIntegration lets a definite integral without an
	// antiderivative fall back to Gauss-Legendre quadrature.
	AllowNumericIntegration bool

	// StrictVariables makes integrate, limit and solve reject expressions
	// with several free symbols when no variable is named, and rejects a
	// named variable that does not occur.
	StrictVariables bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Timeout:       5 * time.Second,
		NumericSolve:  true,
		NumericRange:  100,
		Tolerance:     1e-10,
		MaxIterations: 100,
	}
}

// Validate reports settings that would make numeric code misbehave.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("engine timeout must not be negative, got %s", c.Timeout)
	}
	if c.NumericRange <= 0 {
		return fmt.Errorf("numeric range must be positive, got %g", c.NumericRange)
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be in (0, 1), got %g", c.Tolerance)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", c.MaxIterations)
	}
	return nil
}
