package eeprom25

import (
	"fmt"
	"log/slog"
)

// Instruction set shared by the whole family.
const (
	cmdWRSR  = 0x01 // write status register
	cmdWrite = 0x02 // write data
	cmdRead  = 0x03 // read data
	cmdWRDI  = 0x04 // reset write enable latch
	cmdRDSR  = 0x05 // read status register
	cmdWREN  = 0x06 // set write enable latch
)

// filler is clocked out while reading; the part ignores it.
const filler = 0xAA

// Level is the logic level of a select line.
type Level bool

// Select line levels. High is idle.
const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "High"
	}
	return "Low"
}

// Bus is a full-duplex SPI transport clocking one byte at a time.
type Bus interface {
	Transfer(b byte) (byte, error)
}

// SelectLine drives the chip select of one part.
type SelectLine interface {
	ConfigureOutput() error
	Set(level Level) error
}

// Device is one 25xx part on a bus.
type Device struct {
	bus     Bus
	cs      SelectLine
	density Density
	profile Profile
	encode  addressEncoder
	cfg     config
	log     *slog.Logger
}

// New returns a Device for the given density class. No bus activity happens
// until Init is called.
func New(bus Bus, cs SelectLine, density Density, opts ...Option) (*Device, error) {
	profile, ok := density.Profile()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDensity, uint8(density))
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.pageSize != 0 {
		ps := cfg.pageSize
		if ps < 0 || ps&(ps-1) != 0 || uint32(ps) > profile.Size {
			return nil, fmt.Errorf("%w: %d for %s", ErrInvalidPageSize, ps, profile.Part)
		}
		profile.PageSize = ps
	}

	return &Device{
		bus:     bus,
		cs:      cs,
		density: density,
		profile: profile,
		encode:  newAddressEncoder(profile.AddressMode, cfg.a8Shift),
		cfg:     cfg,
		log:     cfg.logger.With("component", "eeprom25", "part", profile.Part),
	}, nil
}

// Init configures the select line as an output and leaves it deasserted. It
// may be called more than once.
func (d *Device) Init() error {
	if err := d.cs.ConfigureOutput(); err != nil {
		return fmt.Errorf("configure select line: %w", err)
	}
	if err := d.cs.Set(High); err != nil {
		return fmt.Errorf("deassert select line: %w", err)
	}
	return nil
}

// Density returns the density class the device was created with.
func (d *Device) Density() Density { return d.density }

// Profile returns the resolved geometry, including any page size override.
func (d *Device) Profile() Profile { return d.profile }

// Size is the number of addressable bytes.
func (d *Device) Size() uint32 { return d.profile.Size }

// PageSize is the largest burst the part accepts.
func (d *Device) PageSize() int { return d.profile.PageSize }

// clamp limits [address, address+n) to the array. ok is false when nothing
// is left to do; err is set instead in strict mode.
func (d *Device) clamp(op string, address uint32, n int) (int, bool, error) {
	if address >= d.profile.Size || n <= 0 {
		if d.cfg.strict {
			return 0, false, &RangeError{Op: op, Address: int64(address), Count: n, Size: d.profile.Size}
		}
		return 0, false, nil
	}
	if left := d.profile.Size - address; uint64(n) > uint64(left) {
		n = int(left)
	}
	return n, true, nil
}

// transaction asserts select around fn. Select is released even if fn fails.
func (d *Device) transaction(fn func() error) error {
	if err := d.cs.Set(Low); err != nil {
		return fmt.Errorf("assert select line: %w", err)
	}
	if err := fn(); err != nil {
		_ = d.cs.Set(High)
		return err
	}
	if err := d.cs.Set(High); err != nil {
		return fmt.Errorf("deassert select line: %w", err)
	}
	return nil
}

// command runs a transaction made of a single instruction byte.
func (d *Device) command(cmd byte) error {
	return d.transaction(func() error {
		_, err := d.bus.Transfer(cmd)
		return err
	})
}
