package eeprom25

// addressEncoder appends the instruction byte and the address bytes for one
// addressing mode to hdr.
type addressEncoder func(hdr []byte, cmd byte, addr uint32) []byte

func newAddressEncoder(mode AddressMode, a8Shift uint) addressEncoder {
	switch mode {
	case Addr9Folded:
		return func(hdr []byte, cmd byte, addr uint32) []byte {
			return append(hdr, cmd|byte(addr>>8&0x01)<<a8Shift, byte(addr))
		}
	case Addr16:
		return func(hdr []byte, cmd byte, addr uint32) []byte {
			return append(hdr, cmd, byte(addr>>8), byte(addr))
		}
	case Addr24:
		return func(hdr []byte, cmd byte, addr uint32) []byte {
			return append(hdr, cmd, byte(addr>>16), byte(addr>>8), byte(addr))
		}
	}
	return func(hdr []byte, cmd byte, addr uint32) []byte {
		return append(hdr, cmd, byte(addr))
	}
}

// sendAddress clocks out the instruction and address. The select line must
// already be asserted.
func (d *Device) sendAddress(cmd byte, addr uint32) error {
	var buf [4]byte
	for _, b := range d.encode(buf[:0], cmd, addr) {
		if _, err := d.bus.Transfer(b); err != nil {
			return err
		}
	}
	return nil
}
