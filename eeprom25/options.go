package eeprom25

import (
	"log/slog"
	"time"
)

// DefaultWriteDelay is the worst-case internal write cycle of the family.
const DefaultWriteDelay = 6 * time.Millisecond

// Sleeper blocks for the given duration.
type Sleeper func(time.Duration)

type config struct {
	logger       *slog.Logger
	sleep        Sleeper
	writeDelay   time.Duration
	pageSize     int
	strict       bool
	poll         bool
	pollInterval time.Duration
	pollTimeout  time.Duration
	a8Shift      uint
}

func defaultConfig() config {
	return config{
		logger:     slog.Default(),
		sleep:      time.Sleep,
		writeDelay: DefaultWriteDelay,
	}
}

// Option configures a Device.
type Option func(*config)

// WithLogger sets the logger used for burst and status tracing.
//
// Example:
//
//	dev, _ := eeprom25.New(bus, cs, eeprom25.Density1Mbit, eeprom25.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSleep replaces time.Sleep as the delay primitive.
func WithSleep(sleep Sleeper) Option {
	return func(c *config) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithWriteDelay sets the fixed completion delay after each burst.
// Default is 6ms.
func WithWriteDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.writeDelay = d
		}
	}
}

// WithPageSize overrides the page size of the density class, e.g. 32 for the
// 25xx080B and 25xx160B parts.
func WithPageSize(size int) Option {
	return func(c *config) {
		c.pageSize = size
	}
}

// WithStrictRange makes empty and out-of-range requests fail with a
// *RangeError instead of being ignored.
func WithStrictRange() Option {
	return func(c *config) {
		c.strict = true
	}
}

// WithStatusPolling replaces the fixed completion delay with polling the
// status register every interval until the write-in-progress bit clears.
// ErrWriteTimeout is returned if it is still set after timeout.
//
// Example:
//
//	dev, _ := eeprom25.New(bus, cs, eeprom25.Density256Kbit,
//	    eeprom25.WithStatusPolling(500*time.Microsecond, 10*time.Millisecond),
//	)
func WithStatusPolling(interval, timeout time.Duration) Option {
	return func(c *config) {
		if interval <= 0 || timeout <= 0 {
			return
		}
		c.poll = true
		c.pollInterval = interval
		c.pollTimeout = timeout
	}
}

// WithInstructionA8 places address bit 8 of 4Kbit parts at instruction bit 3,
// the layout of the 25xx040 datasheets. By default it is OR'ed into bit 0.
func WithInstructionA8() Option {
	return func(c *config) {
		c.a8Shift = 3
	}
}
