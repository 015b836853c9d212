package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hotboards/ee25/bridge/mcp2210"
	"github.com/hotboards/ee25/bridge/periphspi"
	"github.com/hotboards/ee25/eeprom25"
	"github.com/hotboards/ee25/sim"
	"periph.io/x/conn/v3/physic"
)

// Context carries the opened device between kong and the commands.
type Context struct {
	log    *slog.Logger
	stdout io.Writer
	dev    *eeprom25.Device
	closer func() error
}

func density() (eeprom25.Density, error) {
	return eeprom25.ParseDensity(CLI.Part)
}

func deviceOptions(log *slog.Logger) []eeprom25.Option {
	opts := []eeprom25.Option{eeprom25.WithLogger(log)}
	if CLI.PageSize != 0 {
		opts = append(opts, eeprom25.WithPageSize(CLI.PageSize))
	}
	if CLI.Poll {
		opts = append(opts, eeprom25.WithStatusPolling(500*time.Microsecond, 20*time.Millisecond))
	}
	if CLI.Strict {
		opts = append(opts, eeprom25.WithStrictRange())
	}
	if CLI.A8Bit3 {
		opts = append(opts, eeprom25.WithInstructionA8())
	}
	return opts
}

// Device opens the configured backend on first use.
func (c *Context) Device() (*eeprom25.Device, error) {
	if c.dev != nil {
		return c.dev, nil
	}

	d, err := density()
	if err != nil {
		return nil, err
	}

	var (
		bus eeprom25.Bus
		cs  eeprom25.SelectLine
	)
	opts := deviceOptions(c.log)

	switch CLI.Backend {
	case "sim":
		chip, err := sim.New(d)
		if err != nil {
			return nil, err
		}
		if err := chip.LoadFile(CLI.Image); err != nil {
			return nil, err
		}
		c.log.Info("simulated chip", "part", CLI.Part, "image", CLI.Image)
		bus, cs = chip, chip
		// The simulated chip completes writes at once.
		opts = append(opts, eeprom25.WithWriteDelay(0))
		c.closer = func() error {
			if v := chip.Violations(); len(v) != 0 {
				c.log.Warn("simulated chip flagged bus misuse", "violations", fmt.Sprint(v))
			}
			return chip.SaveFile(CLI.Image)
		}

	case "mcp2210":
		f := mcp2210.Filter{VID: uint16(CLI.VID), PID: uint16(CLI.PID), Serial: CLI.Serial, Path: CLI.RawPath}
		b, err := mcp2210.Open(f, mcp2210.Config{BitRate: uint32(CLI.Speed), Logger: c.log})
		if err != nil {
			return nil, fmt.Errorf("open MCP2210: %w", err)
		}
		pin, err := b.Select(CLI.CSGPIO)
		if err != nil {
			b.Close()
			return nil, err
		}
		bus, cs = b, pin
		c.closer = b.Close

	case "spidev":
		p, err := periphspi.Open(CLI.SPIPort, CLI.CSPin, physic.Frequency(CLI.Speed)*physic.Hertz)
		if err != nil {
			return nil, err
		}
		bus, cs = p.Bus, p.Select
		c.closer = p.Close

	default:
		return nil, fmt.Errorf("unknown backend %q", CLI.Backend)
	}

	dev, err := eeprom25.New(bus, cs, d, opts...)
	if err == nil {
		err = dev.Init()
	}
	if err != nil {
		c.Close()
		return nil, err
	}
	c.dev = dev
	return dev, nil
}

// checkFoldedA8 warns when a 4Kbit request reaches the upper half while A8
// is folded into instruction bit 0. Most parts expect it in bit 3.
func (c *Context) checkFoldedA8(dev *eeprom25.Device, address uint32, n int) {
	if dev.Profile().AddressMode != eeprom25.Addr9Folded || CLI.A8Bit3 {
		return
	}
	if uint64(address)+uint64(n) > 0x100 {
		c.log.Warn("4Kbit request above 0x0FF without --a8-bit3; most parts will read or write the wrong half",
			"address", fmt.Sprintf("0x%03X", address), "count", n)
	}
}

// Close releases the backend.
func (c *Context) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer()
	c.closer = nil
	return err
}
