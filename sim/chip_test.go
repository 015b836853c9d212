package sim

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/hotboards/ee25/eeprom25"
)

// cycle runs one select-low..select-high transaction and returns MISO.
func cycle(t *testing.T, c *Chip, out ...byte) []byte {
	t.Helper()
	if err := c.Set(eeprom25.Low); err != nil {
		t.Fatalf("Set(Low): %v", err)
	}
	in := make([]byte, len(out))
	for i, b := range out {
		r, err := c.Transfer(b)
		if err != nil {
			t.Fatalf("Transfer(%#02x): %v", b, err)
		}
		in[i] = r
	}
	if err := c.Set(eeprom25.High); err != nil {
		t.Fatalf("Set(High): %v", err)
	}
	return in
}

func newChip(t *testing.T, d eeprom25.Density) *Chip {
	t.Helper()
	c, err := New(d)
	if err != nil {
		t.Fatalf("New(%v): %v", d, err)
	}
	if err := c.ConfigureOutput(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSelectRequiresOutput(t *testing.T) {
	c, _ := New(eeprom25.Density1Kbit)
	if err := c.Set(eeprom25.Low); err == nil {
		t.Fatal("Set before ConfigureOutput should fail")
	}
}

func TestBlankChip(t *testing.T) {
	c := newChip(t, eeprom25.Density2Kbit)
	got := cycle(t, c, opRead, 0x10, 0, 0, 0)
	if !bytes.Equal(got[2:], []byte{0xff, 0xff, 0xff}) {
		t.Fatalf("blank read = % x", got[2:])
	}
}

func TestWriteNeedsLatch(t *testing.T) {
	c := newChip(t, eeprom25.Density32Kbit)

	cycle(t, c, opWrite, 0x00, 0x00, 0x12)
	if got := c.Peek(0, 1)[0]; got != 0xff {
		t.Fatalf("write without WREN changed memory to %#02x", got)
	}
	if v := c.Violations(); len(v) != 1 || v[0].Kind != WriteNotEnabled {
		t.Fatalf("violations = %v", v)
	}

	cycle(t, c, opWREN)
	if !c.Status().WriteEnabled() {
		t.Fatal("WEL not set after WREN")
	}
	cycle(t, c, opWrite, 0x00, 0x00, 0x12, 0x34)
	if got := c.Peek(0, 2); !bytes.Equal(got, []byte{0x12, 0x34}) {
		t.Fatalf("memory = % x", got)
	}
	if c.Status().WriteEnabled() {
		t.Fatal("WEL still set after write cycle")
	}
	if got := c.Stats().Cycles; got != 1 {
		t.Fatalf("cycles = %d", got)
	}
}

func TestWriteDisable(t *testing.T) {
	c := newChip(t, eeprom25.Density32Kbit)
	cycle(t, c, opWREN)
	cycle(t, c, opWRDI)
	cycle(t, c, opWrite, 0x00, 0x00, 0x12)
	if got := c.Peek(0, 1)[0]; got != 0xff {
		t.Fatalf("write after WRDI changed memory to %#02x", got)
	}
}

func TestPageWrap(t *testing.T) {
	c := newChip(t, eeprom25.Density1Kbit) // 16 byte pages

	cycle(t, c, opWREN)
	cycle(t, c, opWrite, 14, 0xa0, 0xa1, 0xa2, 0xa3)

	if got := c.Peek(14, 2); !bytes.Equal(got, []byte{0xa0, 0xa1}) {
		t.Fatalf("page tail = % x", got)
	}
	if got := c.Peek(0, 2); !bytes.Equal(got, []byte{0xa2, 0xa3}) {
		t.Fatalf("wrapped bytes = % x", got)
	}
	if got := c.Peek(16, 1)[0]; got != 0xff {
		t.Fatalf("next page touched: %#02x", got)
	}
	v := c.Violations()
	if len(v) != 1 || v[0].Kind != PageCross || v[0].Address != 14 || v[0].Length != 4 {
		t.Fatalf("violations = %v", v)
	}
}

func TestSequentialReadWraps(t *testing.T) {
	c := newChip(t, eeprom25.Density1Kbit)
	c.Poke(0, []byte{0x11})
	c.Poke(127, []byte{0x22})
	got := cycle(t, c, opRead, 127, 0, 0)
	if !bytes.Equal(got[2:], []byte{0x22, 0x11}) {
		t.Fatalf("read = % x", got[2:])
	}
}

func TestAddressModes(t *testing.T) {
	tests := []struct {
		density eeprom25.Density
		addr    uint32
		header  []byte
	}{
		{eeprom25.Density2Kbit, 0xab, []byte{opRead, 0xab}},
		{eeprom25.Density4Kbit, 0x1ab, []byte{opRead | 0x08, 0xab}},
		{eeprom25.Density4Kbit, 0x0ab, []byte{opRead, 0xab}},
		{eeprom25.Density64Kbit, 0x1abc, []byte{opRead, 0x1a, 0xbc}},
		{eeprom25.Density1Mbit, 0x1abcd, []byte{opRead, 0x01, 0xab, 0xcd}},
	}

	for _, tt := range tests {
		t.Run(tt.density.String(), func(t *testing.T) {
			c := newChip(t, tt.density)
			c.Poke(tt.addr, []byte{0x5a})
			got := cycle(t, c, append(tt.header, 0)...)
			if got[len(got)-1] != 0x5a {
				t.Fatalf("read at %#x = %#02x", tt.addr, got[len(got)-1])
			}
		})
	}
}

func TestStatusRegister(t *testing.T) {
	c := newChip(t, eeprom25.Density256Kbit)

	cycle(t, c, opWREN)
	cycle(t, c, opWRSR, byte(eeprom25.Status(0).WithBlockProtect(eeprom25.ProtectUpperHalf)))
	if got := c.Status().BlockProtect(); got != eeprom25.ProtectUpperHalf {
		t.Fatalf("BP = %v", got)
	}

	got := cycle(t, c, opRDSR, 0)
	if eeprom25.Status(got[1]).BlockProtect() != eeprom25.ProtectUpperHalf {
		t.Fatalf("RDSR = %#02x", got[1])
	}

	// protected upper half, writable lower half
	half := uint32(c.Size() / 2)
	cycle(t, c, opWREN)
	cycle(t, c, opWrite, byte(half>>8), byte(half), 0x01)
	cycle(t, c, opWREN)
	cycle(t, c, opWrite, 0, 0, 0x02)
	if got := c.Peek(half, 1)[0]; got != 0xff {
		t.Fatalf("protected byte = %#02x", got)
	}
	if got := c.Peek(0, 1)[0]; got != 0x02 {
		t.Fatalf("unprotected byte = %#02x", got)
	}
}

func TestBusyPolls(t *testing.T) {
	c := newChip(t, eeprom25.Density32Kbit)
	c.SetWriteCycle(2)
	cycle(t, c, opWREN)
	cycle(t, c, opWrite, 0, 0, 0x01)

	for i, want := range []bool{true, true, false} {
		got := cycle(t, c, opRDSR, 0)
		if wip := eeprom25.Status(got[1]).WriteInProgress(); wip != want {
			t.Fatalf("poll %d: WIP = %v, want %v", i, wip, want)
		}
	}
}

func TestUnselectedTransfer(t *testing.T) {
	c := newChip(t, eeprom25.Density32Kbit)
	if b, _ := c.Transfer(opWREN); b != idle {
		t.Fatalf("unselected MISO = %#02x", b)
	}
	if c.Status().WriteEnabled() {
		t.Fatal("unselected WREN latched")
	}
	if v := c.Violations(); len(v) != 1 || v[0].Kind != UnselectedTransfer {
		t.Fatalf("violations = %v", v)
	}
}

func TestImageRoundTrip(t *testing.T) {
	c := newChip(t, eeprom25.Density1Kbit)
	c.Poke(3, []byte("image"))

	path := filepath.Join(t.TempDir(), "chip.bin")
	if err := c.SaveFile(path); err != nil {
		t.Fatal(err)
	}

	d := newChip(t, eeprom25.Density1Kbit)
	if err := d.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(c.Peek(0, c.Size()), d.Peek(0, d.Size())) {
		t.Fatal("image differs after reload")
	}

	if err := d.LoadFile(filepath.Join(t.TempDir(), "missing.bin")); err != nil {
		t.Fatalf("missing image: %v", err)
	}
	if d.Peek(3, 1)[0] != 0xff {
		t.Fatal("missing image should leave the chip erased")
	}
}

func TestLoadTooLarge(t *testing.T) {
	c := newChip(t, eeprom25.Density1Kbit)
	if err := c.Load(bytes.NewReader(make([]byte, 129))); err == nil {
		t.Fatal("oversized image accepted")
	}
	if err := c.Load(bytes.NewReader([]byte{1, 2})); err != nil {
		t.Fatalf("short image: %v", err)
	}
	if got := c.Peek(0, 3); !bytes.Equal(got, []byte{1, 2, 0xff}) {
		t.Fatalf("short image = % x", got)
	}
}

func TestReadAfterEnable(t *testing.T) {
	c := newChip(t, eeprom25.Density4Kbit)

	// a write to 0x123 with A8 folded into bit 0 turns 0x02 into READ
	cycle(t, c, opWREN)
	cycle(t, c, opWrite|0x01, 0x23, 1, 2, 3)

	if got := c.Peek(0x123, 3); !bytes.Equal(got, []byte{0xff, 0xff, 0xff}) {
		t.Fatalf("memory = % x", got)
	}
	if !c.Status().WriteEnabled() {
		t.Fatal("WEL cleared without a write cycle")
	}
	v := c.Violations()
	if len(v) != 1 || v[0].Kind != ReadAfterEnable || v[0].Address != 0x23 {
		t.Fatalf("violations = %v", v)
	}

	// RDSR after WREN is a normal way to check the latch
	cycle(t, c, opWREN)
	cycle(t, c, opRDSR, 0)
	cycle(t, c, opRead, 0x10, 0)
	if got := len(c.Violations()); got != 1 {
		t.Fatalf("%d violations after RDSR and plain read", got)
	}
}
