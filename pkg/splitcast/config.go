package splitcast

import (
	"time"

	uuid "github.com/hashicorp/go-uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the immutable, construction-time limits for a Splitter.
type Config struct {
	// MaxBuffers is the maximum FIFO depth allowed per client.
	MaxBuffers int
	// MaxClients is the maximum number of simultaneously registered
	// clients.
	MaxClients int
}

// Option configures a Splitter beyond its Config, for external
// collaborators such as the clock source and logging sink.
type Option func(*Splitter)

// WithLogger overrides the default package logger for one Splitter
// instance.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Splitter) { s.log = l }
}

// Clock is the monotonic clock source a Splitter uses for deadlines.
// Swappable in tests that need to control the passage of time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// WithClock overrides the default (real) clock source.
func WithClock(c Clock) Option {
	return func(s *Splitter) { s.clock = c }
}

func validate(cfg Config) error {
	if cfg.MaxBuffers < 1 {
		return errors.Errorf("splitcast: MaxBuffers must be >= 1, got %d", cfg.MaxBuffers)
	}
	if cfg.MaxClients < 1 {
		return errors.Errorf("splitcast: MaxClients must be >= 1, got %d", cfg.MaxClients)
	}
	return nil
}

func newInstanceID() string {
	id, err := uuid.GenerateUUID()
	if err != nil {
		// Entropy failures are effectively unreachable in practice;
		// fall back to a fixed tag rather than fail construction over
		// a logging nicety.
		log.Warn().Err(err).Msg("splitcast: failed to generate instance id, logs will be uncorrelated")
		return "unknown"
	}
	return id
}
