package eeprom25

import "fmt"

// Burst is one page-bounded write transaction.
type Burst struct {
	Address uint32
	Offset  int // into the caller's data
	Length  int
}

// Bursts returns the page-aligned decomposition a write of size bytes at
// address would use, after clamping. No bus activity happens.
func (d *Device) Bursts(address uint32, size int) []Burst {
	size, ok, _ := d.clamp("plan", address, size)
	if !ok {
		return nil
	}
	return splitPages(address, size, d.profile.PageSize)
}

// splitPages fills up to the first page boundary, then whole pages, then the
// remainder.
func splitPages(address uint32, size, page int) []Burst {
	room := page - int(address%uint32(page))
	if room >= size {
		return []Burst{{Address: address, Length: size}}
	}

	bursts := make([]Burst, 0, 2+(size-room)/page)
	bursts = append(bursts, Burst{Address: address, Length: room})
	off := room
	address += uint32(room)
	size -= room

	for size > page {
		bursts = append(bursts, Burst{Address: address, Offset: off, Length: page})
		off += page
		address += uint32(page)
		size -= page
	}
	if size != 0 {
		bursts = append(bursts, Burst{Address: address, Offset: off, Length: size})
	}
	return bursts
}

// WriteBuffer writes data starting at address. Data running past the end of
// the array is dropped; nothing happens when address is past the end or data
// is empty.
func (d *Device) WriteBuffer(address uint32, data []byte) error {
	size, ok, err := d.clamp("write", address, len(data))
	if !ok {
		return err
	}
	for _, b := range splitPages(address, size, d.profile.PageSize) {
		if err := d.writePage(b.Address, data[b.Offset:b.Offset+b.Length]); err != nil {
			return err
		}
	}
	return nil
}

// WriteByte writes one byte at address.
func (d *Device) WriteByte(address uint32, b byte) error {
	return d.WriteBuffer(address, []byte{b})
}

// writePage latches write enable in its own select cycle, sends the page
// payload and waits for the internal write cycle.
func (d *Device) writePage(address uint32, data []byte) error {
	d.log.Debug("page write", "address", address, "length", len(data))

	if err := d.command(cmdWREN); err != nil {
		return fmt.Errorf("write enable at 0x%06X: %w", address, err)
	}

	err := d.transaction(func() error {
		if err := d.sendAddress(cmdWrite, address); err != nil {
			return err
		}
		for _, b := range data {
			if _, err := d.bus.Transfer(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write %d bytes at 0x%06X: %w", len(data), address, err)
	}

	return d.waitWriteCycle()
}

func (d *Device) waitWriteCycle() error {
	if d.cfg.poll {
		return d.pollReady()
	}
	d.cfg.sleep(d.cfg.writeDelay)
	return nil
}
