package eeprom25

import "fmt"

// Status is the content of the status register.
type Status byte

// Status register bits.
const (
	StatusWIP Status = 1 << 0 // write in progress
	StatusWEL Status = 1 << 1 // write enable latch
	StatusBP0 Status = 1 << 2
	StatusBP1 Status = 1 << 3
)

// BlockProtect selects which part of the array is write protected.
type BlockProtect uint8

// Protection levels encoded in BP1:BP0.
const (
	ProtectNone BlockProtect = iota
	ProtectUpperQuarter
	ProtectUpperHalf
	ProtectAll
)

func (p BlockProtect) String() string {
	switch p {
	case ProtectNone:
		return "none"
	case ProtectUpperQuarter:
		return "upper 1/4"
	case ProtectUpperHalf:
		return "upper 1/2"
	case ProtectAll:
		return "all"
	}
	return fmt.Sprintf("BlockProtect(%d)", uint8(p))
}

// Range returns the protected address range [from, to) for an array of size
// bytes. from == to means nothing is protected.
func (p BlockProtect) Range(size uint32) (from, to uint32) {
	switch p & 0x03 {
	case ProtectUpperQuarter:
		return size - size/4, size
	case ProtectUpperHalf:
		return size / 2, size
	case ProtectAll:
		return 0, size
	}
	return size, size
}

// WriteInProgress reports whether an internal write cycle is running.
func (s Status) WriteInProgress() bool { return s&StatusWIP != 0 }

// WriteEnabled reports whether the write enable latch is set.
func (s Status) WriteEnabled() bool { return s&StatusWEL != 0 }

// BlockProtect returns the BP1:BP0 field.
func (s Status) BlockProtect() BlockProtect { return BlockProtect(s>>2) & 0x03 }

// WithBlockProtect returns s with the BP bits replaced.
func (s Status) WithBlockProtect(p BlockProtect) Status {
	return s&^(StatusBP0|StatusBP1) | Status(p&0x03)<<2
}

func (s Status) String() string {
	return fmt.Sprintf("0x%02X (WIP=%t WEL=%t BP=%s)", byte(s), s.WriteInProgress(), s.WriteEnabled(), s.BlockProtect())
}

// ReadStatus reads the status register.
func (d *Device) ReadStatus() (Status, error) {
	var s byte
	err := d.transaction(func() error {
		if _, err := d.bus.Transfer(cmdRDSR); err != nil {
			return err
		}
		b, err := d.bus.Transfer(filler)
		s = b
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read status: %w", err)
	}
	return Status(s), nil
}

// WriteStatus writes the status register. Only the block protect bits are
// writable on this family.
func (d *Device) WriteStatus(s Status) error {
	if err := d.command(cmdWREN); err != nil {
		return fmt.Errorf("write enable: %w", err)
	}
	err := d.transaction(func() error {
		if _, err := d.bus.Transfer(cmdWRSR); err != nil {
			return err
		}
		_, err := d.bus.Transfer(byte(s))
		return err
	})
	if err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return d.waitWriteCycle()
}

// SetBlockProtect changes only the block protect bits.
func (d *Device) SetBlockProtect(p BlockProtect) error {
	s, err := d.ReadStatus()
	if err != nil {
		return err
	}
	return d.WriteStatus(s.WithBlockProtect(p) &^ (StatusWIP | StatusWEL))
}

// WriteDisable resets the write enable latch.
func (d *Device) WriteDisable() error {
	if err := d.command(cmdWRDI); err != nil {
		return fmt.Errorf("write disable: %w", err)
	}
	return nil
}

func (d *Device) pollReady() error {
	polls := int(d.cfg.pollTimeout / d.cfg.pollInterval)
	if polls < 1 {
		polls = 1
	}
	for i := 0; i <= polls; i++ {
		s, err := d.ReadStatus()
		if err != nil {
			return err
		}
		if !s.WriteInProgress() {
			d.log.Debug("write cycle done", "polls", i+1)
			return nil
		}
		if i == polls {
			break
		}
		d.cfg.sleep(d.cfg.pollInterval)
	}
	return fmt.Errorf("%w after %s", ErrWriteTimeout, d.cfg.pollTimeout)
}
