package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/hotboards/ee25/bridge/mcp2210"
	"github.com/karalabe/usb"
)

type ListCmd struct {
}

func (l *ListCmd) Run(c *Context) error {
	f := mcp2210.Filter{VID: uint16(CLI.VID), PID: uint16(CLI.PID), Serial: CLI.Serial, Path: CLI.RawPath}
	title := color.New(color.Bold)

	return mcp2210.Search(f, c.log, func(info usb.DeviceInfo) error {
		title.Fprintf(c.stdout, "%s: ID %04x:%04x %s %s (Interface %d)\n",
			info.Path, info.VendorID, info.ProductID, info.Manufacturer, info.Product, info.Interface)
		fmt.Fprintln(c.stdout, "Device Information:")
		fmt.Fprintf(c.stdout, "\tPath         %s\n", info.Path)
		fmt.Fprintf(c.stdout, "\tVendorID     %04x\n", info.VendorID)
		fmt.Fprintf(c.stdout, "\tProductID    %04x\n", info.ProductID)
		fmt.Fprintf(c.stdout, "\tSerial       %s\n", info.Serial)
		fmt.Fprintf(c.stdout, "\tRelease      %x.%x\n", info.Release>>8, info.Release&0xff)
		fmt.Fprintf(c.stdout, "\tManufacturer %s\n", info.Manufacturer)
		fmt.Fprintf(c.stdout, "\tProduct      %s\n", info.Product)
		fmt.Fprintf(c.stdout, "\tInterface    %d\n", info.Interface)
		fmt.Fprintf(c.stdout, "\tUsage        %04x\n", info.Usage)
		fmt.Fprintln(c.stdout)

		return nil
	})
}
