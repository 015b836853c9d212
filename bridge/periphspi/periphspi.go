// Package periphspi connects a 25xx EEPROM to a host SPI port and GPIO pin
// through periph.io. The SPI port is opened without hardware chip select;
// chip select is the GPIO pin so a select cycle can span many transfers.
package periphspi

import (
	"fmt"

	"github.com/hotboards/ee25/eeprom25"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// DefaultSpeed is a clock every part of the family accepts at 1.8V.
const DefaultSpeed = 1 * physic.MegaHertz

type txer interface {
	Tx(w, r []byte) error
}

type outer interface {
	Out(l gpio.Level) error
}

// Bus is an eeprom25.Bus on a periph SPI connection.
type Bus struct {
	conn txer
	w, r [1]byte
}

// NewBus wraps an SPI connection opened in mode 0.
func NewBus(conn spi.Conn) *Bus {
	return &Bus{conn: conn}
}

// Transfer implements eeprom25.Bus.
func (b *Bus) Transfer(x byte) (byte, error) {
	b.w[0] = x
	if err := b.conn.Tx(b.w[:], b.r[:]); err != nil {
		return 0, err
	}
	return b.r[0], nil
}

// Select is an eeprom25.SelectLine on a GPIO pin.
type Select struct {
	pin outer
}

// NewSelect wraps a GPIO output pin.
func NewSelect(pin gpio.PinOut) *Select {
	return &Select{pin: pin}
}

// ConfigureOutput drives the pin high, which makes it an output.
func (s *Select) ConfigureOutput() error {
	return s.pin.Out(gpio.High)
}

// Set implements eeprom25.SelectLine.
func (s *Select) Set(level eeprom25.Level) error {
	return s.pin.Out(gpio.Level(level))
}

// Port is an opened SPI port with its chip select pin.
type Port struct {
	*Bus
	*Select
	port spi.PortCloser
}

// Open initialises the host drivers, opens the SPI port by name ("" for the
// first one, or e.g. "/dev/spidev0.0") and looks up the chip select pin
// (e.g. "GPIO8").
func Open(portName, csPin string, speed physic.Frequency) (*Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	if speed == 0 {
		speed = DefaultSpeed
	}

	pin := gpioreg.ByName(csPin)
	if pin == nil {
		return nil, fmt.Errorf("no GPIO pin %q", csPin)
	}

	p, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open SPI port %q: %w", portName, err)
	}
	conn, err := p.Connect(speed, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("connect SPI port %q: %w", portName, err)
	}

	return &Port{Bus: NewBus(conn), Select: NewSelect(pin), port: p}, nil
}

// Close releases the SPI port.
func (p *Port) Close() error {
	return p.port.Close()
}

var (
	_ eeprom25.Bus        = (*Bus)(nil)
	_ eeprom25.SelectLine = (*Select)(nil)
)
