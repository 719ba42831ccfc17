package session

import "time"

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// Window is the sliding-expiration window: a token is valid while its
	// last use is within the window, and every successful verification
	// renews it.
	Window time.Duration

	// TokenLength is the length of generated plain tokens (alphanumeric).
	TokenLength int

	// SweepInterval is how often the background sweeper runs.
	SweepInterval time.Duration

	// SweepStaleAfter is the idle age beyond which the sweeper evicts a
	// token. It defaults to Window: the sweep is a coarse janitor, the
	// per-call window check in Verify stays the authoritative gate.
	SweepStaleAfter time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Window:          7 * 24 * time.Hour,
		TokenLength:     32,
		SweepInterval:   time.Hour,
		SweepStaleAfter: 7 * 24 * time.Hour,
	}
}

func (c Config) validate() error {
	if c.Window <= 0 || c.TokenLength < 32 {
		return ErrConfig
	}
	if c.SweepInterval <= 0 || c.SweepStaleAfter <= 0 {
		return ErrConfig
	}
	// A sweep horizon tighter than the verification window would evict
	// tokens that Verify still considers live.
	if c.SweepStaleAfter < c.Window {
		return ErrConfig
	}
	return nil
}
