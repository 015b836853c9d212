package main

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/kong"
)

// popUint reads the next value as an unsigned number in any base strconv
// accepts with base 0 (42, 0x2a, 0o52, 0b101010).
func popUint(ctx *kong.DecodeContext, bits int) (uint64, error) {
	t, err := ctx.Scan.PopValue("number")
	if err != nil {
		return 0, err
	}
	switch v := t.Value.(type) {
	case string:
		n, err := strconv.ParseUint(v, 0, bits)
		if err != nil {
			return 0, fmt.Errorf("expected a %d bit number but got %q", bits, v)
		}
		return n, nil
	case int:
		if v >= 0 && uint64(v)>>bits == 0 {
			return uint64(v), nil
		}
	}
	return 0, fmt.Errorf("expected a %d bit number but got %v", bits, t.Value)
}

// Address is an EEPROM address, decimal or hex.
type Address uint32

func (a *Address) Decode(ctx *kong.DecodeContext) error {
	n, err := popUint(ctx, 32)
	*a = Address(n)
	return err
}

// Count is a byte count, decimal or hex.
type Count int

func (c *Count) Decode(ctx *kong.DecodeContext) error {
	n, err := popUint(ctx, 31)
	*c = Count(n)
	return err
}

// USBID is a vendor or product ID, usually written in hex.
type USBID uint16

func (id *USBID) Decode(ctx *kong.DecodeContext) error {
	n, err := popUint(ctx, 16)
	*id = USBID(n)
	return err
}

// Octet is a single byte value.
type Octet uint8

func (o *Octet) Decode(ctx *kong.DecodeContext) error {
	n, err := popUint(ctx, 8)
	*o = Octet(n)
	return err
}
