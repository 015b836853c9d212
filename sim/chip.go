// Package sim models a 25xx serial EEPROM closely enough to stand in for the
// hardware: it implements eeprom25.Bus and eeprom25.SelectLine, latches write
// enable like the real part, wraps bursts inside a page and honours block
// protection.
package sim

import (
	"fmt"

	"github.com/hotboards/ee25/eeprom25"
)

const (
	opWRSR  = 0x01
	opWrite = 0x02
	opRead  = 0x03
	opWRDI  = 0x04
	opRDSR  = 0x05
	opWREN  = 0x06
)

// idle is what MISO reads while the part is not driving it.
const idle = 0xFF

// Violation records bus usage a real part would not accept as intended.
type Violation struct {
	Kind    string
	Address uint32
	Length  int
}

func (v Violation) String() string {
	return fmt.Sprintf("%s at 0x%06X (%d bytes)", v.Kind, v.Address, v.Length)
}

// Violation kinds.
const (
	PageCross          = "page-cross"
	WriteNotEnabled    = "write-not-enabled"
	UnselectedTransfer = "unselected-transfer"
	UnknownInstruction = "unknown-instruction"
	ReadAfterEnable    = "read-after-write-enable"
)

// Stats counts bus activity.
type Stats struct {
	Transfers  int
	SelectSets int
	Cycles     int // completed write cycles
}

type phase int

const (
	phaseOpcode phase = iota
	phaseAddress
	phaseData
	phaseIgnore
)

// Chip is a simulated part. The zero value is not usable; use New.
type Chip struct {
	mem      []byte
	pageSize int
	mode     eeprom25.AddressMode

	configured bool
	selected   bool
	status     eeprom25.Status
	busyPolls  int
	busyLeft   int

	// current transaction
	phase     phase
	op        byte
	addr      uint32
	addrLeft  int
	writeBase uint32
	written   int
	pending   map[uint32]byte
	order     []uint32
	newStatus *eeprom25.Status
	lastOp    byte
	enabled   bool // previous instruction was WREN

	stats      Stats
	violations []Violation
}

// New returns a blank (all 0xFF) chip with the geometry of density.
func New(density eeprom25.Density) (*Chip, error) {
	p, ok := density.Profile()
	if !ok {
		return nil, fmt.Errorf("%w: %d", eeprom25.ErrUnknownDensity, uint8(density))
	}
	return NewGeometry(p.Size, p.PageSize, p.AddressMode), nil
}

// NewGeometry returns a blank chip with an explicit geometry.
func NewGeometry(size uint32, pageSize int, mode eeprom25.AddressMode) *Chip {
	c := &Chip{
		mem:      make([]byte, size),
		pageSize: pageSize,
		mode:     mode,
		selected: false,
	}
	c.Erase()
	return c
}

// Erase fills the array with 0xFF, the state of a new part.
func (c *Chip) Erase() {
	for i := range c.mem {
		c.mem[i] = 0xFF
	}
}

// Size is the array size in bytes.
func (c *Chip) Size() int { return len(c.mem) }

// PageSize is the page buffer size.
func (c *Chip) PageSize() int { return c.pageSize }

// Peek returns a copy of n bytes at addr.
func (c *Chip) Peek(addr uint32, n int) []byte {
	out := make([]byte, n)
	copy(out, c.mem[addr:])
	return out
}

// Poke writes the array directly, bypassing the bus.
func (c *Chip) Poke(addr uint32, data []byte) {
	copy(c.mem[addr:], data)
}

// Status returns the status register.
func (c *Chip) Status() eeprom25.Status {
	s := c.status
	if c.busyLeft > 0 {
		s |= eeprom25.StatusWIP
	}
	return s
}

// SetWriteCycle makes the write-in-progress bit read as set for the next
// polls status reads after each write cycle.
func (c *Chip) SetWriteCycle(polls int) {
	c.busyPolls = polls
}

// Stats returns the activity counters.
func (c *Chip) Stats() Stats { return c.stats }

// Violations returns everything the chip flagged so far.
func (c *Chip) Violations() []Violation {
	return append([]Violation(nil), c.violations...)
}

// Selected reports whether chip select is asserted.
func (c *Chip) Selected() bool { return c.selected }

// ConfigureOutput implements eeprom25.SelectLine.
func (c *Chip) ConfigureOutput() error {
	c.configured = true
	return nil
}

// Set implements eeprom25.SelectLine. A falling edge starts an instruction,
// a rising edge ends it and commits a pending write.
func (c *Chip) Set(level eeprom25.Level) error {
	if !c.configured {
		return fmt.Errorf("select line not configured as output")
	}
	c.stats.SelectSets++
	sel := level == eeprom25.Low
	switch {
	case sel && !c.selected:
		c.begin()
	case !sel && c.selected:
		c.end()
	}
	c.selected = sel
	return nil
}

// Transfer implements eeprom25.Bus.
func (c *Chip) Transfer(b byte) (byte, error) {
	c.stats.Transfers++
	if !c.selected {
		c.flag(UnselectedTransfer, 0, 1)
		return idle, nil
	}

	switch c.phase {
	case phaseOpcode:
		c.opcode(b)
		return idle, nil
	case phaseAddress:
		c.addr = c.addr<<8 | uint32(b)
		c.addrLeft--
		if c.addrLeft == 0 {
			c.addr %= uint32(len(c.mem))
			c.phase = phaseData
			c.writeBase = c.addr
		}
		return idle, nil
	case phaseData:
		return c.data(b), nil
	}
	return idle, nil
}

func (c *Chip) begin() {
	c.phase = phaseOpcode
	c.op = 0
	c.addr = 0
	c.written = 0
	c.pending = nil
	c.order = c.order[:0]
	c.newStatus = nil
	c.enabled = c.lastOp == opWREN
}

func (c *Chip) opcode(b byte) {
	op := b
	if c.mode == eeprom25.Addr9Folded && (b&^0x08 == opRead || b&^0x08 == opWrite) {
		op = b &^ 0x08
		c.addr = uint32(b>>3) & 0x01
	}
	c.op = op

	switch op {
	case opRead, opWrite:
		c.phase = phaseAddress
		c.addrLeft = c.mode.AddressBytes()
	case opRDSR, opWRSR:
		c.phase = phaseData
	case opWREN:
		c.status |= eeprom25.StatusWEL
		c.phase = phaseIgnore
	case opWRDI:
		c.status &^= eeprom25.StatusWEL
		c.phase = phaseIgnore
	default:
		c.flag(UnknownInstruction, uint32(b), 0)
		c.phase = phaseIgnore
	}
}

func (c *Chip) data(b byte) byte {
	switch c.op {
	case opRead:
		v := c.mem[c.addr]
		c.addr = (c.addr + 1) % uint32(len(c.mem))
		return v
	case opRDSR:
		s := c.Status()
		if c.busyLeft > 0 {
			c.busyLeft--
		}
		return byte(s)
	case opWRSR:
		s := eeprom25.Status(b)
		c.newStatus = &s
	case opWrite:
		// The page buffer wraps: bytes past the page end land at its start.
		page := c.writeBase - c.writeBase%uint32(c.pageSize)
		off := (c.writeBase%uint32(c.pageSize) + uint32(c.written)) % uint32(c.pageSize)
		at := page + off
		if c.pending == nil {
			c.pending = make(map[uint32]byte, c.pageSize)
		}
		if _, ok := c.pending[at]; !ok {
			c.order = append(c.order, at)
		}
		c.pending[at] = b
		c.written++
	}
	return idle
}

func (c *Chip) end() {
	switch c.op {
	case opWrite:
		if c.written > 0 {
			c.commitData()
		}
	case opWRSR:
		if c.newStatus != nil {
			c.commitStatus(*c.newStatus)
		}
	case opRead:
		// A read right after WREN is usually a write whose opcode got
		// mangled, e.g. A8 folded into bit 0 of a 4Kbit instruction.
		if c.enabled && c.phase == phaseData {
			c.flag(ReadAfterEnable, c.writeBase, 0)
		}
	}
	c.lastOp = c.op
	c.phase = phaseOpcode
}

func (c *Chip) commitData() {
	if int(c.writeBase%uint32(c.pageSize))+c.written > c.pageSize {
		c.flag(PageCross, c.writeBase, c.written)
	}
	if !c.status.WriteEnabled() {
		c.flag(WriteNotEnabled, c.writeBase, c.written)
		return
	}

	from, to := c.status.BlockProtect().Range(uint32(len(c.mem)))
	for _, at := range c.order {
		if at >= from && at < to {
			continue
		}
		c.mem[at] = c.pending[at]
	}
	c.cycleDone()
}

func (c *Chip) commitStatus(s eeprom25.Status) {
	if !c.status.WriteEnabled() {
		c.flag(WriteNotEnabled, 0, 1)
		return
	}
	c.status = c.status.WithBlockProtect(s.BlockProtect())
	c.cycleDone()
}

func (c *Chip) cycleDone() {
	c.status &^= eeprom25.StatusWEL
	c.busyLeft = c.busyPolls
	c.stats.Cycles++
}

func (c *Chip) flag(kind string, addr uint32, n int) {
	c.violations = append(c.violations, Violation{Kind: kind, Address: addr, Length: n})
}

var (
	_ eeprom25.Bus        = (*Chip)(nil)
	_ eeprom25.SelectLine = (*Chip)(nil)
)
