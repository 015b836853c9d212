package eeprom25

import "fmt"

// ReadBuffer reads up to count bytes starting at address. The result is
// shorter than count when the range runs past the end of the array, and empty
// when address is past the end or count is zero.
func (d *Device) ReadBuffer(address uint32, count int) ([]byte, error) {
	n, ok, err := d.clamp("read", address, count)
	if !ok {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := d.readInto(address, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadInto fills buf from address and returns the number of bytes read.
func (d *Device) ReadInto(address uint32, buf []byte) (int, error) {
	n, ok, err := d.clamp("read", address, len(buf))
	if !ok {
		return 0, err
	}
	return d.readInto(address, buf[:n])
}

// ReadByte reads the byte at address. Out of range it returns 0.
func (d *Device) ReadByte(address uint32) (byte, error) {
	var b [1]byte
	if _, err := d.ReadInto(address, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Device) readInto(address uint32, buf []byte) (int, error) {
	n := 0
	err := d.transaction(func() error {
		if err := d.sendAddress(cmdRead, address); err != nil {
			return err
		}
		for i := range buf {
			b, err := d.bus.Transfer(filler)
			if err != nil {
				return err
			}
			buf[i] = b
			n++
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("read %d bytes at 0x%06X: %w", len(buf), address, err)
	}
	return n, nil
}
