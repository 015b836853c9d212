package eeprom25

import (
	"io"
)

// Region presents a Device as a flat memory region.
type Region struct {
	dev  *Device
	name string
}

// Region returns the device as a memory region called name.
func (d *Device) Region(name string) *Region {
	if name == "" {
		name = "EEPROM"
	}
	return &Region{dev: d, name: name}
}

func (r *Region) GetName() string {
	return r.name
}

func (r *Region) GetLength() int {
	return int(r.dev.Size())
}

// GetAlignment is 1: any byte is individually writable.
func (r *Region) GetAlignment() int {
	return 1
}

// Access reads into or writes from buf at addr and returns the number of
// bytes transferred, clamped to the end of the region.
func (r *Region) Access(write bool, addr int, buf []byte) (int, error) {
	if addr < 0 || addr >= r.GetLength() || len(buf) == 0 {
		return 0, nil
	}
	if addr+len(buf) > r.GetLength() {
		buf = buf[:r.GetLength()-addr]
	}

	if write {
		if err := r.dev.WriteBuffer(uint32(addr), buf); err != nil {
			return 0, err
		}
		return len(buf), nil
	}
	return r.dev.ReadInto(uint32(addr), buf)
}

// ReadAt implements io.ReaderAt.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	return r.at(false, p, off)
}

// WriteAt implements io.WriterAt.
func (r *Region) WriteAt(p []byte, off int64) (int, error) {
	return r.at(true, p, off)
}

func (r *Region) at(write bool, p []byte, off int64) (int, error) {
	if off < 0 {
		op := "read"
		if write {
			op = "write"
		}
		return 0, &RangeError{Op: op, Address: off, Count: len(p), Size: r.dev.Size()}
	}
	if off >= int64(r.GetLength()) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n, err := r.Access(write, int(off), p)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

var (
	_ io.ReaderAt = (*Region)(nil)
	_ io.WriterAt = (*Region)(nil)
)
