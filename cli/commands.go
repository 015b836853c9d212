package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/hotboards/ee25/eeprom25"
	"github.com/inancgumus/screen"
	"github.com/sigurn/crc16"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	headColor = color.New(color.Bold, color.Underline)
)

type PartsCmd struct{}

func (p *PartsCmd) Run(c *Context) error {
	headColor.Fprintf(c.stdout, "%-10s %8s %6s %8s %6s %-12s\n", "part", "density", "page", "bytes", "pages", "addressing")
	for _, d := range eeprom25.Densities() {
		pr, _ := d.Profile()
		name := fmt.Sprintf("%-10s", pr.Part)
		if sel, err := density(); err == nil && sel == d {
			name = color.CyanString("%s", name)
		}
		fmt.Fprintf(c.stdout, "%s %8s %6d %8d %6d %-12s\n", name, d, pr.PageSize, pr.Size, pr.Pages(), pr.AddressMode)
	}
	return nil
}

type PlanCmd struct {
	Address Address `arg:"" help:"Start address."`
	Length  Count   `arg:"" help:"Number of bytes."`
}

func (p *PlanCmd) Run(c *Context) error {
	d, err := density()
	if err != nil {
		return err
	}
	// Planning does no I/O, so no bus is needed.
	dev, err := eeprom25.New(nil, nil, d, deviceOptions(c.log)...)
	if err != nil {
		return err
	}

	bursts := dev.Bursts(uint32(p.Address), int(p.Length))
	if len(bursts) == 0 {
		fmt.Fprintln(c.stdout, "nothing to write")
		return nil
	}

	headColor.Fprintf(c.stdout, "%-6s %-10s %-8s %-6s\n", "burst", "address", "offset", "length")
	total := 0
	for i, b := range bursts {
		fmt.Fprintf(c.stdout, "%-6d 0x%08x %-8d %-6d\n", i, b.Address, b.Offset, b.Length)
		total += b.Length
	}
	fmt.Fprintf(c.stdout, "%d bytes in %d bursts of at most %d\n", total, len(bursts), dev.PageSize())
	return nil
}

type ReadCmd struct {
	Address Address `arg:"" help:"Start address."`
	Length  Count   `arg:"" help:"Number of bytes."`
	Output  string  `short:"o" type:"path" help:"Write to this file instead of a hexdump."`
}

func (r *ReadCmd) Run(c *Context) error {
	dev, err := c.Device()
	if err != nil {
		return err
	}

	c.checkFoldedA8(dev, uint32(r.Address), int(r.Length))
	data, err := dev.ReadBuffer(uint32(r.Address), int(r.Length))
	if err != nil {
		return err
	}
	if len(data) < int(r.Length) {
		c.log.Warn("read truncated at end of array", "requested", r.Length, "read", len(data))
	}

	if r.Output != "" {
		return os.WriteFile(r.Output, data, 0o644)
	}
	hexdump(c.stdout, uint32(r.Address), data, dumpColumns(terminalWidth()))
	return nil
}

type WriteCmd struct {
	Address Address `arg:"" help:"Start address."`
	File    string  `arg:"" optional:"" type:"existingfile" help:"File to write."`
	Hex     string  `help:"Hex bytes to write instead of a file, e.g. 'de ad be ef'."`
	Verify  bool    `help:"Read back and compare."`
}

func (w *WriteCmd) payload() ([]byte, error) {
	switch {
	case w.Hex != "" && w.File != "":
		return nil, fmt.Errorf("give either a file or --hex, not both")
	case w.Hex != "":
		return parseHex(w.Hex)
	case w.File != "":
		return os.ReadFile(w.File)
	}
	return nil, fmt.Errorf("nothing to write: give a file or --hex")
}

func (w *WriteCmd) Run(c *Context) error {
	data, err := w.payload()
	if err != nil {
		return err
	}

	dev, err := c.Device()
	if err != nil {
		return err
	}

	addr := uint32(w.Address)
	c.checkFoldedA8(dev, addr, len(data))

	start := time.Now()
	if err := dev.WriteBuffer(addr, data); err != nil {
		return err
	}
	n := len(dev.Bursts(addr, len(data)))
	c.log.Info("write done", "bytes", len(data), "bursts", n, "took", time.Since(start))

	if !w.Verify {
		return nil
	}
	return verify(c.stdout, dev, addr, data)
}

// verify reads back what fits in the array and compares it to want.
func verify(w io.Writer, dev *eeprom25.Device, address uint32, want []byte) error {
	got, err := dev.ReadBuffer(address, len(want))
	if err != nil {
		return err
	}
	want = want[:len(got)]

	table := crc16.MakeTable(crc16.CRC16_CCITT_FALSE)
	wc, gc := crc16.Checksum(want, table), crc16.Checksum(got, table)

	if bytes.Equal(got, want) {
		okColor.Fprint(w, "OK")
		fmt.Fprintf(w, "   %d bytes, crc16 %04x\n", len(got), gc)
		return nil
	}

	failColor.Fprint(w, "FAIL")
	fmt.Fprintf(w, " crc16 %04x, expected %04x\n", gc, wc)
	for i := range got {
		if got[i] != want[i] {
			return fmt.Errorf("verify: first mismatch at 0x%x: read %02x, wrote %02x", address+uint32(i), got[i], want[i])
		}
	}
	return fmt.Errorf("verify failed")
}

// parseHex accepts bytes separated by spaces, colons or nothing, with an
// optional 0x prefix.
func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer("0x", "", "0X", "", " ", "", ":", "", ",", "", "\t", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	return b, nil
}

type FillCmd struct {
	Address Address `arg:"" help:"Start address."`
	Length  Count   `arg:"" help:"Number of bytes."`
	Value   Octet   `arg:"" optional:"" default:"0xff" help:"Byte value."`
}

func (f *FillCmd) Run(c *Context) error {
	dev, err := c.Device()
	if err != nil {
		return err
	}
	c.checkFoldedA8(dev, uint32(f.Address), int(f.Length))
	return dev.WriteBuffer(uint32(f.Address), bytes.Repeat([]byte{byte(f.Value)}, int(f.Length)))
}

type DumpCmd struct {
	Watch    bool          `short:"w" help:"Redraw until interrupted."`
	Interval time.Duration `default:"1s" help:"Refresh interval with --watch."`
	Count    int           `help:"Stop after this many refreshes (0 is forever)."`
}

func (d *DumpCmd) Run(c *Context) error {
	dev, err := c.Device()
	if err != nil {
		return err
	}
	region := dev.Region(CLI.Part)

	buf := make([]byte, region.GetLength())
	for i := 0; ; i++ {
		if _, err := region.Access(false, 0, buf); err != nil {
			return err
		}

		if d.Watch {
			screen.Clear()
			screen.MoveTopLeft()
			headColor.Fprintf(c.stdout, "%s  %d bytes  %s\n", region.GetName(), len(buf), time.Now().Format(time.TimeOnly))
		}
		hexdump(c.stdout, 0, buf, dumpColumns(terminalWidth()))

		if !d.Watch || (d.Count > 0 && i+1 >= d.Count) {
			return nil
		}
		time.Sleep(d.Interval)
	}
}

var crcAlgorithms = map[string]crc16.Params{
	"ccitt-false": crc16.CRC16_CCITT_FALSE,
	"xmodem":      crc16.CRC16_XMODEM,
	"modbus":      crc16.CRC16_MODBUS,
	"arc":         crc16.CRC16_ARC,
}

type CRCCmd struct {
	Address Address `arg:"" optional:"" help:"Start address."`
	Length  Count   `arg:"" optional:"" help:"Number of bytes (default to the end of the array)."`
	Algo    string  `enum:"ccitt-false,xmodem,modbus,arc" default:"ccitt-false" help:"CRC16 variant."`
}

func (r *CRCCmd) Run(c *Context) error {
	dev, err := c.Device()
	if err != nil {
		return err
	}

	addr, n := uint32(r.Address), int(r.Length)
	if n == 0 && addr < dev.Size() {
		n = int(dev.Size() - addr)
	}
	data, err := dev.ReadBuffer(addr, n)
	if err != nil {
		return err
	}

	sum := crc16.Checksum(data, crc16.MakeTable(crcAlgorithms[r.Algo]))
	fmt.Fprintf(c.stdout, "%04x  %s  0x%x+%d\n", sum, r.Algo, addr, len(data))
	return nil
}

type StatusCmd struct{}

func (s *StatusCmd) Run(c *Context) error {
	dev, err := c.Device()
	if err != nil {
		return err
	}
	st, err := dev.ReadStatus()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "status  %s\n", st)
	from, to := st.BlockProtect().Range(dev.Size())
	if from == to {
		fmt.Fprintln(c.stdout, "protect", okColor.Sprint("none"))
	} else {
		fmt.Fprintf(c.stdout, "protect %s 0x%x-0x%x\n", failColor.Sprint(st.BlockProtect()), from, to-1)
	}
	return nil
}

var protectLevels = map[string]eeprom25.BlockProtect{
	"none":    eeprom25.ProtectNone,
	"quarter": eeprom25.ProtectUpperQuarter,
	"half":    eeprom25.ProtectUpperHalf,
	"all":     eeprom25.ProtectAll,
}

type ProtectCmd struct {
	Level string `arg:"" enum:"none,quarter,half,all" help:"Protected part of the array."`
}

func (p *ProtectCmd) Run(c *Context) error {
	dev, err := c.Device()
	if err != nil {
		return err
	}
	if err := dev.SetBlockProtect(protectLevels[p.Level]); err != nil {
		return err
	}
	st, err := dev.ReadStatus()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "status  %s\n", st)
	return nil
}
