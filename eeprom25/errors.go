package eeprom25

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDensity indicates a density class outside the supported set.
	ErrUnknownDensity = errors.New("unknown density class")

	// ErrInvalidPageSize indicates a page size override that is not a power
	// of two or exceeds the array.
	ErrInvalidPageSize = errors.New("invalid page size")

	// ErrInvalidRange is returned in strict mode for a request that starts at
	// or past the end of the array, or is empty.
	ErrInvalidRange = errors.New("invalid address range")

	// ErrWriteTimeout indicates the write-in-progress bit did not clear while
	// polling the status register.
	ErrWriteTimeout = errors.New("write cycle timeout")
)

// RangeError describes a rejected request: one outside the array in strict
// mode, or a negative io offset.
type RangeError struct {
	Op      string
	Address int64
	Count   int
	Size    uint32
}

func (e *RangeError) Error() string {
	if e.Address < 0 {
		return fmt.Sprintf("%s: %d bytes at negative offset %d", e.Op, e.Count, e.Address)
	}
	return fmt.Sprintf("%s: %d bytes at 0x%06X outside 0x%06X byte array", e.Op, e.Count, e.Address, e.Size)
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}
