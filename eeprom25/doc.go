// Package eeprom25 drives 25xx-family serial EEPROMs (Microchip 25AA/25LC,
// Atmel AT25, ST M95) from 1Kbit to 1Mbit over a chip-select-gated SPI bus.
//
// The driver needs three things from the host: a Bus that clocks one byte out
// while clocking one byte in, a SelectLine for the part's chip select, and a
// blocking delay. The bus must be set to mode 0, MSB first, before Init is
// called.
//
// Writes are split into bursts that never cross a page boundary; each burst is
// preceded by its own write-enable latch cycle and followed by a fixed 6 ms
// completion delay, or by status polling when WithStatusPolling is given.
// Requests past the end of the array are clamped and requests that start past
// it, or are empty, do nothing.
//
// # Example
//
//	dev, err := eeprom25.New(bus, cs, eeprom25.Density32Kbit)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := dev.Init(); err != nil {
//		log.Fatal(err)
//	}
//	_ = dev.WriteByte(0, 'A')
//	b, _ := dev.ReadByte(0)
//
// A Device is not safe for concurrent use. Parts sharing one bus must be
// serialized by the caller so that only one chip select is asserted at a time.
//
// # Datasheets
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/21832H.pdf (25AA040A)
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/20001836J.pdf (25AA1024)
package eeprom25
