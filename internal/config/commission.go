package config

import "context"

// CommissionSource reads the platform commission percentage from the
// environment on every call, falling back to the configured default. Reading
// per call means a rate change applies to every not-yet-settled transaction
// without a process restart.
type CommissionSource struct {
	fallback float64
}

// NewCommissionSource creates a CommissionSource with the given default.
func NewCommissionSource(fallback float64) *CommissionSource {
	return &CommissionSource{fallback: fallback}
}

// CommissionPercent returns the current commission percentage.
func (s *CommissionSource) CommissionPercent(ctx context.Context) (float64, error) {
	return getFloatEnv("COMMISSION_PERCENT", s.fallback), nil
}
