// Package mcp2210 drives a 25xx EEPROM through a Microchip MCP2210 USB-to-SPI
// protocol converter. The converter is a USB HID-class device exchanging
// 64 byte reports; every GP pin is configured as a plain GPIO so chip select
// is under the driver's control rather than the converter's.
//
// Datasheet: https://ww1.microchip.com/downloads/en/DeviceDoc/22288A.pdf
package mcp2210

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hotboards/ee25/eeprom25"
)

// VID and PID assigned to the MCP2210 by Microchip.
const (
	VID = 0x04D8
	PID = 0x00DE
)

// MsgSz is the size of all command and response reports.
const MsgSz = 64

// Pins is the number of GP pins.
const Pins = 9

const (
	cmdSetChipSettings = 0x21
	cmdSetGPIOValue    = 0x30
	cmdSetGPIODir      = 0x32
	cmdSetSPISettings  = 0x40
	cmdSPITransfer     = 0x42
)

// Response status codes.
const (
	statusOK          = 0x00
	statusBusNotAvail = 0xF7
	statusInProgress  = 0xF8
)

// engineFinished in byte 3 of a transfer response means the SPI engine is
// idle again.
const engineFinished = 0x10

// pin designations in chip settings
const designationGPIO = 0x00

var (
	// ErrCommandFailed indicates a non-zero status in a response.
	ErrCommandFailed = errors.New("mcp2210: command failed")

	// ErrShortReport indicates a response shorter than MsgSz.
	ErrShortReport = errors.New("mcp2210: short report")

	// ErrBusy indicates the SPI engine did not return data within the retry
	// budget.
	ErrBusy = errors.New("mcp2210: spi engine busy")
)

// Config holds the converter setup.
type Config struct {
	// BitRate in bits per second. Default 1 MHz.
	BitRate uint32

	// Retries bounds how often a transfer is re-polled while the SPI engine
	// is busy. Default 16.
	Retries int

	Logger *slog.Logger
}

func (c *Config) setDefaults() {
	if c.BitRate == 0 {
		c.BitRate = 1_000_000
	}
	if c.Retries <= 0 {
		c.Retries = 16
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Bridge is an opened MCP2210. It implements eeprom25.Bus; chip select lines
// are obtained with Select.
type Bridge struct {
	dev io.ReadWriteCloser
	cfg Config
	log *slog.Logger
	out uint16 // GPIO output latch
	dir uint16 // GPIO direction, 1 = input
}

// New configures an opened converter: all GP pins become GPIO inputs with
// their output latch high, and the SPI engine is set to mode 0 with one byte
// per transaction.
func New(dev io.ReadWriteCloser, cfg Config) (*Bridge, error) {
	cfg.setDefaults()
	b := &Bridge{
		dev: dev,
		cfg: cfg,
		log: cfg.Logger.With("component", "mcp2210"),
		out: 1<<Pins - 1,
		dir: 1<<Pins - 1,
	}

	msg := makeMsg()
	for i := 0; i < Pins; i++ {
		msg[4+i] = designationGPIO
	}
	binary.LittleEndian.PutUint16(msg[13:], b.out)
	binary.LittleEndian.PutUint16(msg[15:], b.dir)
	if _, err := b.command(cmdSetChipSettings, msg); err != nil {
		return nil, err
	}

	msg = makeMsg()
	binary.LittleEndian.PutUint32(msg[4:], cfg.BitRate)
	binary.LittleEndian.PutUint16(msg[8:], 0xFFFF)  // idle CS, unused with GPIO pins
	binary.LittleEndian.PutUint16(msg[10:], 0xFFFF) // active CS
	binary.LittleEndian.PutUint16(msg[18:], 1)      // bytes per transaction
	msg[20] = 0                                     // SPI mode 0
	if _, err := b.command(cmdSetSPISettings, msg); err != nil {
		return nil, err
	}

	b.log.Debug("configured", "bitrate", cfg.BitRate)
	return b, nil
}

// makeMsg returns a zeroed report.
func makeMsg() []byte { return make([]byte, MsgSz) }

// send writes one command report and reads its response. The echoed command
// byte is checked; the status byte is left to the caller.
func (b *Bridge) send(cmd byte, msg []byte) ([]byte, error) {
	msg[0] = cmd
	if _, err := b.dev.Write(msg); err != nil {
		return nil, fmt.Errorf("write [cmd=0x%02X]: %w", cmd, err)
	}

	rsp := makeMsg()
	n, err := b.dev.Read(rsp)
	if err != nil {
		return nil, fmt.Errorf("read [cmd=0x%02X]: %w", cmd, err)
	}
	if n < MsgSz {
		return nil, fmt.Errorf("read [cmd=0x%02X]: %w (%d of %d bytes)", cmd, ErrShortReport, n, MsgSz)
	}
	if rsp[0] != cmd {
		return nil, fmt.Errorf("read [cmd=0x%02X]: %w: response to 0x%02X", cmd, ErrCommandFailed, rsp[0])
	}
	return rsp, nil
}

// command sends a report that must complete with status OK.
func (b *Bridge) command(cmd byte, msg []byte) ([]byte, error) {
	rsp, err := b.send(cmd, msg)
	if err != nil {
		return nil, err
	}
	if rsp[1] != statusOK {
		return rsp, fmt.Errorf("%w: cmd 0x%02X status 0x%02X", ErrCommandFailed, cmd, rsp[1])
	}
	return rsp, nil
}

// Transfer implements eeprom25.Bus. The byte is handed to the SPI engine and
// the engine is polled until the received byte is returned.
func (b *Bridge) Transfer(x byte) (byte, error) {
	msg := makeMsg()
	msg[1] = 1
	msg[4] = x

	for i := 0; i < b.cfg.Retries; i++ {
		rsp, err := b.send(cmdSPITransfer, msg)
		if err != nil {
			return 0, err
		}
		switch rsp[1] {
		case statusOK:
		case statusInProgress, statusBusNotAvail:
			b.log.Debug("spi engine busy", "status", rsp[1])
			continue
		default:
			return 0, fmt.Errorf("%w: spi transfer status 0x%02X", ErrCommandFailed, rsp[1])
		}

		if rsp[2] > 0 {
			return rsp[4], nil
		}
		if rsp[3] == engineFinished && msg[1] == 0 {
			return 0, fmt.Errorf("%w: transfer finished without data", ErrCommandFailed)
		}
		// accepted; poll with empty reports for the received byte
		msg[1] = 0
		msg[4] = 0
	}
	return 0, ErrBusy
}

func (b *Bridge) setGPIO() error {
	msg := makeMsg()
	binary.LittleEndian.PutUint16(msg[4:], b.out)
	_, err := b.command(cmdSetGPIOValue, msg)
	return err
}

func (b *Bridge) setDirection() error {
	msg := makeMsg()
	binary.LittleEndian.PutUint16(msg[4:], b.dir)
	_, err := b.command(cmdSetGPIODir, msg)
	return err
}

// Close closes the USB device.
func (b *Bridge) Close() error {
	return b.dev.Close()
}

// Pin is a GP pin used as chip select. It implements eeprom25.SelectLine.
type Pin struct {
	b *Bridge
	n int
}

// Select returns GP pin n as a chip select line.
func (b *Bridge) Select(n int) (*Pin, error) {
	if n < 0 || n >= Pins {
		return nil, fmt.Errorf("mcp2210: no GP%d", n)
	}
	return &Pin{b: b, n: n}, nil
}

// ConfigureOutput makes the pin an output.
func (p *Pin) ConfigureOutput() error {
	p.b.dir &^= 1 << p.n
	return p.b.setDirection()
}

// Set drives the pin.
func (p *Pin) Set(level eeprom25.Level) error {
	if level == eeprom25.High {
		p.b.out |= 1 << p.n
	} else {
		p.b.out &^= 1 << p.n
	}
	return p.b.setGPIO()
}

func (p *Pin) String() string {
	return fmt.Sprintf("GP%d", p.n)
}

var (
	_ eeprom25.Bus        = (*Bridge)(nil)
	_ eeprom25.SelectLine = (*Pin)(nil)
)
