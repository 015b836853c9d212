package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	offsetColor = color.New(color.FgCyan)
	erasedColor = color.New(color.FgHiBlack)
	zeroColor   = color.New(color.FgYellow)
)

// dumpColumns picks 16 or 32 bytes per line to fit the terminal.
func dumpColumns(termWidth int) int {
	// offset + hex + ascii at 32 columns
	if termWidth >= 10+32*3+2+32 {
		return 32
	}
	return 16
}

// hexdump writes data as "offset  hex  |ascii|" lines. Addresses start at
// base. Erased (0xFF) bytes are dimmed.
func hexdump(w io.Writer, base uint32, data []byte, cols int) {
	if cols <= 0 {
		cols = 16
	}
	for off := 0; off < len(data); off += cols {
		line := data[off:min(off+cols, len(data))]

		offsetColor.Fprintf(w, "%08x", base+uint32(off))
		fmt.Fprint(w, "  ")

		for i := 0; i < cols; i++ {
			if i == cols/2 {
				fmt.Fprint(w, " ")
			}
			if i >= len(line) {
				fmt.Fprint(w, "   ")
				continue
			}
			switch b := line[i]; b {
			case 0xff:
				erasedColor.Fprintf(w, "%02x ", b)
			case 0x00:
				zeroColor.Fprintf(w, "%02x ", b)
			default:
				fmt.Fprintf(w, "%02x ", b)
			}
		}

		var ascii strings.Builder
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				ascii.WriteByte(b)
			} else {
				ascii.WriteByte('.')
			}
		}
		fmt.Fprintf(w, " |%s|\n", ascii.String())
	}
}
