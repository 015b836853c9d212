package eeprom25

import (
	"fmt"
	"strings"
)

// Density selects one of the supported part sizes. Part numbers of the family
// are designated in kilobits.
type Density uint8

// Supported density classes.
const (
	Density1Kbit   Density = iota // 25xx010
	Density2Kbit                  // 25xx020
	Density4Kbit                  // 25xx040
	Density8Kbit                  // 25xx080
	Density16Kbit                 // 25xx160
	Density32Kbit                 // 25xx320
	Density64Kbit                 // 25xx640
	Density128Kbit                // 25xx128
	Density256Kbit                // 25xx256
	Density512Kbit                // 25xx512
	Density1Mbit                  // 25xx1024
)

// AddressMode is the way a part expects the memory address after an
// instruction byte.
type AddressMode uint8

const (
	// Addr8 sends one address byte.
	Addr8 AddressMode = iota
	// Addr9Folded carries address bit 8 inside the instruction byte and sends
	// the low address byte.
	Addr9Folded
	// Addr16 sends two address bytes, MSB first.
	Addr16
	// Addr24 sends three address bytes, MSB first.
	Addr24
)

func (m AddressMode) String() string {
	switch m {
	case Addr8:
		return "8-bit"
	case Addr9Folded:
		return "9-bit (A8 in instruction)"
	case Addr16:
		return "16-bit"
	case Addr24:
		return "24-bit"
	}
	return fmt.Sprintf("AddressMode(%d)", uint8(m))
}

// AddressBytes is the number of bytes sent after the instruction byte.
func (m AddressMode) AddressBytes() int {
	switch m {
	case Addr16:
		return 2
	case Addr24:
		return 3
	}
	return 1
}

// Profile holds the fixed geometry of a density class.
type Profile struct {
	Part        string
	Kbit        int
	PageSize    int
	Size        uint32
	AddressMode AddressMode
}

// Pages is the number of write pages in the array.
func (p Profile) Pages() int {
	return int(p.Size) / p.PageSize
}

// 8 and 16 Kbit parts come in "A" (16 byte page) and "B" (32 byte page)
// variants; 16 is safe on both.
var profiles = [...]Profile{
	Density1Kbit:   {"25xx010", 1, 16, 128, Addr8},
	Density2Kbit:   {"25xx020", 2, 16, 256, Addr8},
	Density4Kbit:   {"25xx040", 4, 16, 512, Addr9Folded},
	Density8Kbit:   {"25xx080", 8, 16, 1024, Addr16},
	Density16Kbit:  {"25xx160", 16, 16, 2048, Addr16},
	Density32Kbit:  {"25xx320", 32, 32, 4096, Addr16},
	Density64Kbit:  {"25xx640", 64, 32, 8192, Addr16},
	Density128Kbit: {"25xx128", 128, 64, 16384, Addr16},
	Density256Kbit: {"25xx256", 256, 64, 32768, Addr16},
	Density512Kbit: {"25xx512", 512, 128, 65536, Addr16},
	Density1Mbit:   {"25xx1024", 1024, 256, 131072, Addr24},
}

// Densities returns every supported density class in ascending order.
func Densities() []Density {
	ds := make([]Density, len(profiles))
	for i := range profiles {
		ds[i] = Density(i)
	}
	return ds
}

// Valid reports whether d is a known density class.
func (d Density) Valid() bool {
	return int(d) < len(profiles)
}

// Profile returns the geometry of d. The second result is false for an
// unknown class.
func (d Density) Profile() (Profile, bool) {
	if !d.Valid() {
		return Profile{}, false
	}
	return profiles[d], true
}

func (d Density) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Density(%d)", uint8(d))
	}
	return densityName(profiles[d].Kbit)
}

func densityName(kbit int) string {
	if kbit >= 1024 {
		return fmt.Sprintf("%dMbit", kbit/1024)
	}
	return fmt.Sprintf("%dKbit", kbit)
}

// ParseDensity accepts a part name ("25xx040", "25LC040", "25AA1024") or a
// density ("4kbit", "4Kb", "1mbit").
func ParseDensity(s string) (Density, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	for i, p := range profiles {
		name := strings.ToLower(densityName(p.Kbit))
		short := strings.TrimSuffix(name, "it")
		if k == name || k == short || k == strings.TrimSuffix(short, "b") {
			return Density(i), nil
		}
		// Match the number after the vendor prefix: 25xx040, 25lc040, at25040.
		suffix := strings.TrimPrefix(p.Part, "25xx")
		if strings.HasSuffix(k, suffix) && (strings.HasPrefix(k, "25") || strings.HasPrefix(k, "at25") || strings.HasPrefix(k, "m95")) {
			prefix := strings.TrimSuffix(k, suffix)
			if len(prefix) <= 4 {
				return Density(i), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDensity, s)
}
