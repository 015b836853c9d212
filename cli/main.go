package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

var CLI struct {
	Backend string `enum:"sim,mcp2210,spidev" default:"sim" env:"EE25_BACKEND" help:"Bus backend: sim, mcp2210 or spidev."`
	Part    string `default:"25xx256" env:"EE25_PART" help:"EEPROM part or density, e.g. 25LC040, 25xx1024, 64kbit."`

	Image string `default:"ee25.bin" env:"EE25_IMAGE" type:"path" help:"Backing file of the simulated chip."`

	VID     USBID  `default:"0x04d8" env:"EE25_VID" help:"MCP2210 vendor ID."`
	PID     USBID  `default:"0x00de" env:"EE25_PID" help:"MCP2210 product ID."`
	Serial  string `env:"EE25_SERIAL" help:"Only use the bridge with this serial number."`
	RawPath string `name:"path" env:"EE25_PATH" help:"Only use the bridge at this HID path."`
	CSGPIO  int    `name:"cs-gpio" default:"1" env:"EE25_CS_GPIO" help:"MCP2210 GP pin wired to chip select."`

	SPIPort string `name:"spi-port" env:"EE25_SPI_PORT" help:"Host SPI port for the spidev backend (empty for the first one)."`
	CSPin   string `name:"cs-pin" default:"GPIO8" env:"EE25_CS_PIN" help:"Host GPIO wired to chip select for the spidev backend."`
	Speed   int    `default:"1000000" env:"EE25_SPEED" help:"SPI clock in Hz."`

	PageSize int  `name:"page-size" help:"Override the page size, e.g. 32 for 25xx080B/160B."`
	Poll     bool `help:"Poll the status register instead of waiting 6ms after each page."`
	Strict   bool `help:"Fail on out-of-range requests instead of ignoring them."`
	A8Bit3   bool `name:"a8-bit3" help:"4Kbit parts: send address bit 8 in instruction bit 3."`

	Verbose bool `short:"v" help:"Debug logging."`
	LogJSON bool `name:"log-json" help:"Log in JSON."`

	List    ListCmd    `cmd:"" help:"List MCP2210 bridges."`
	Parts   PartsCmd   `cmd:"" help:"Show supported parts."`
	Plan    PlanCmd    `cmd:"" help:"Show how a write is split into page bursts."`
	Read    ReadCmd    `cmd:"" help:"Read bytes."`
	Write   WriteCmd   `cmd:"" help:"Write a file or hex string."`
	Fill    FillCmd    `cmd:"" help:"Fill a range with one value."`
	Dump    DumpCmd    `cmd:"" help:"Hexdump the whole chip."`
	CRC     CRCCmd     `cmd:"" name:"crc" help:"CRC16 of a range."`
	Status  StatusCmd  `cmd:"" help:"Read the status register."`
	Protect ProtectCmd `cmd:"" help:"Set block write protection."`
}

func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if CLI.Verbose {
		opts.Level = slog.LevelDebug
	}
	if CLI.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ee25"),
		kong.Description("Read and write 25xx SPI EEPROMs."),
		kong.UsageOnError(),
	)

	log := newLogger()
	slog.SetDefault(log)

	c := &Context{log: log, stdout: os.Stdout}
	err := ctx.Run(c)
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	ctx.FatalIfErrorf(err)
}
