package eeprom25_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hotboards/ee25/eeprom25"
	"github.com/hotboards/ee25/sim"
)

const (
	evSelect = iota
	evTransfer
	evSleep
)

type busEvent struct {
	typ   int
	level eeprom25.Level
	out   byte
}

func (e busEvent) String() string {
	switch e.typ {
	case evSelect:
		return "CS " + e.level.String()
	case evTransfer:
		return fmt.Sprintf("%02X", e.out)
	case evSleep:
		return "SLEEP"
	}
	return "unknown busEvent typ"
}

// recorder sits between the driver and a simulated chip and logs every
// select change, byte and delay in order.
type recorder struct {
	chip    *sim.Chip
	log     []busEvent
	slept   []time.Duration
	xferErr error
}

func (r *recorder) ConfigureOutput() error {
	return r.chip.ConfigureOutput()
}

func (r *recorder) Set(level eeprom25.Level) error {
	r.log = append(r.log, busEvent{typ: evSelect, level: level})
	return r.chip.Set(level)
}

func (r *recorder) Transfer(b byte) (byte, error) {
	if r.xferErr != nil {
		return 0, r.xferErr
	}
	r.log = append(r.log, busEvent{typ: evTransfer, out: b})
	return r.chip.Transfer(b)
}

func (r *recorder) sleep(d time.Duration) {
	r.log = append(r.log, busEvent{typ: evSleep})
	r.slept = append(r.slept, d)
}

func (r *recorder) reset() {
	r.log = nil
	r.slept = nil
}

// trace renders the log as "CS Low 06 CS High ...".
func (r *recorder) trace() string {
	parts := make([]string, len(r.log))
	for i, e := range r.log {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// newDevice returns an initialised device on a simulated chip.
func newDevice(t *testing.T, d eeprom25.Density, opts ...eeprom25.Option) (*eeprom25.Device, *recorder) {
	t.Helper()
	chip, err := sim.New(d)
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{chip: chip}
	opts = append([]eeprom25.Option{eeprom25.WithSleep(rec.sleep)}, opts...)
	dev, err := eeprom25.New(rec, rec, d, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Init(); err != nil {
		t.Fatal(err)
	}
	rec.reset()
	return dev, rec
}

func assertClean(t *testing.T, chip *sim.Chip) {
	t.Helper()
	if v := chip.Violations(); len(v) != 0 {
		t.Fatalf("chip flagged %v", v)
	}
	if chip.Selected() {
		t.Fatal("chip select left asserted")
	}
}
