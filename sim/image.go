package sim

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Load replaces the array content with an image read from r. A short image
// leaves the rest of the array erased.
func (c *Chip) Load(r io.Reader) error {
	c.Erase()
	n, err := io.ReadFull(r, c.mem)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("load image: %w", err)
	}
	if n == len(c.mem) {
		var extra [1]byte
		if m, _ := r.Read(extra[:]); m > 0 {
			return fmt.Errorf("load image: larger than %d byte array", len(c.mem))
		}
	}
	return nil
}

// Save writes the whole array to w.
func (c *Chip) Save(w io.Writer) error {
	if _, err := w.Write(c.mem); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

// LoadFile loads an image file. A missing file leaves the chip erased.
func (c *Chip) LoadFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		c.Erase()
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Load(f)
}

// SaveFile writes the array to path.
func (c *Chip) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
