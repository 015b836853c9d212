package mcp2210

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/hotboards/ee25/eeprom25"
	"github.com/hotboards/ee25/sim"
)

// fakeMCP2210 answers reports like the converter and routes SPI bytes and
// the GPIO pins to a simulated EEPROM. Each transfer first reports the
// engine as started without data, like slow real hardware does.
type fakeMCP2210 struct {
	t       *testing.T
	chip    *sim.Chip
	csPin   int
	busy    int // reply 0xF8 to this many transfer requests
	pending []byte
	rsp     []byte
	log     []byte // commands in order
	gpio    uint16
	dir     uint16
	bitrate uint32
	closed  bool
}

func (f *fakeMCP2210) Write(p []byte) (int, error) {
	if len(p) != MsgSz {
		f.t.Fatalf("report of %d bytes", len(p))
	}
	rsp := make([]byte, MsgSz)
	rsp[0] = p[0]
	f.log = append(f.log, p[0])

	switch p[0] {
	case cmdSetChipSettings:
		for i := 0; i < Pins; i++ {
			if p[4+i] != designationGPIO {
				f.t.Errorf("GP%d designation 0x%02X", i, p[4+i])
			}
		}
		f.gpio = binary.LittleEndian.Uint16(p[13:])
		f.dir = binary.LittleEndian.Uint16(p[15:])
	case cmdSetSPISettings:
		f.bitrate = binary.LittleEndian.Uint32(p[4:])
		if p[20] != 0 {
			f.t.Errorf("SPI mode %d", p[20])
		}
	case cmdSetGPIODir:
		f.dir = binary.LittleEndian.Uint16(p[4:])
		if f.dir&(1<<f.csPin) == 0 {
			f.chip.ConfigureOutput()
		}
	case cmdSetGPIOValue:
		f.gpio = binary.LittleEndian.Uint16(p[4:])
		level := eeprom25.Level(f.gpio&(1<<f.csPin) != 0)
		if err := f.chip.Set(level); err != nil {
			f.t.Fatalf("chip select: %v", err)
		}
	case cmdSPITransfer:
		if f.busy > 0 {
			f.busy--
			rsp[1] = statusInProgress
			break
		}
		if p[1] == 1 {
			if f.pending != nil {
				f.t.Fatal("new byte while one is pending")
			}
			b, _ := f.chip.Transfer(p[4])
			f.pending = []byte{b}
			rsp[3] = 0x20 // started, no data yet
			break
		}
		if f.pending == nil {
			f.t.Fatal("poll without a pending byte")
		}
		rsp[2] = 1
		rsp[3] = engineFinished
		rsp[4] = f.pending[0]
		f.pending = nil
	default:
		rsp[1] = 0xFF
	}
	f.rsp = rsp
	return len(p), nil
}

func (f *fakeMCP2210) Read(p []byte) (int, error) {
	return copy(p, f.rsp), nil
}

func (f *fakeMCP2210) Close() error {
	f.closed = true
	return nil
}

func newFake(t *testing.T, d eeprom25.Density) *fakeMCP2210 {
	chip, err := sim.New(d)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeMCP2210{t: t, chip: chip, csPin: 3}
}

func TestNewConfigures(t *testing.T) {
	f := newFake(t, eeprom25.Density32Kbit)
	b, err := New(f, Config{BitRate: 2_000_000})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(f.log, []byte{cmdSetChipSettings, cmdSetSPISettings}) {
		t.Fatalf("commands % x", f.log)
	}
	if f.bitrate != 2_000_000 || f.gpio != 0x1ff || f.dir != 0x1ff {
		t.Fatalf("bitrate %d gpio %#x dir %#x", f.bitrate, f.gpio, f.dir)
	}
	if err := b.Close(); err != nil || !f.closed {
		t.Fatal("Close did not close the device")
	}
}

func TestTransferRetries(t *testing.T) {
	f := newFake(t, eeprom25.Density32Kbit)
	b, err := New(f, Config{})
	if err != nil {
		t.Fatal(err)
	}
	cs, _ := b.Select(f.csPin)
	if err := cs.ConfigureOutput(); err != nil {
		t.Fatal(err)
	}
	f.chip.Poke(0x10, []byte{0x77})

	f.busy = 2
	cs.Set(eeprom25.Low)
	for _, x := range []byte{0x03, 0x00, 0x10} {
		if _, err := b.Transfer(x); err != nil {
			t.Fatal(err)
		}
	}
	got, err := b.Transfer(0xAA)
	cs.Set(eeprom25.High)
	if err != nil || got != 0x77 {
		t.Fatalf("Transfer = %#02x, %v", got, err)
	}
}

func TestTransferBusy(t *testing.T) {
	f := newFake(t, eeprom25.Density32Kbit)
	b, err := New(f, Config{Retries: 3})
	if err != nil {
		t.Fatal(err)
	}
	f.busy = 10
	if _, err := b.Transfer(0); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v", err)
	}
}

func TestCommandFailed(t *testing.T) {
	f := newFake(t, eeprom25.Density32Kbit)
	b, err := New(f, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.command(0x99, makeMsg()); !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("err = %v", err)
	}
	if _, err := b.Select(Pins); err == nil {
		t.Fatal("Select(9) accepted")
	}
}

func TestEEPROMThroughBridge(t *testing.T) {
	f := newFake(t, eeprom25.Density64Kbit)
	b, err := New(f, Config{})
	if err != nil {
		t.Fatal(err)
	}
	cs, _ := b.Select(f.csPin)

	dev, err := eeprom25.New(b, cs, eeprom25.Density64Kbit, eeprom25.WithWriteDelay(0))
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Init(); err != nil {
		t.Fatal(err)
	}

	data := []byte("written through an MCP2210")
	if err := dev.WriteBuffer(0x0ff0, data); err != nil {
		t.Fatal(err)
	}
	got, err := dev.ReadBuffer(0x0ff0, len(data))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("read back %q", got)
	}
	if v := f.chip.Violations(); len(v) != 0 {
		t.Fatalf("violations %v", v)
	}
}
