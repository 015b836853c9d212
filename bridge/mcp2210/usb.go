package mcp2210

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/karalabe/usb"
)

// Filter selects which converter to open.
type Filter struct {
	VID    uint16
	PID    uint16
	Serial string // optional
	Path   string // optional
}

// DefaultFilter matches any MCP2210 with factory IDs.
func DefaultFilter() Filter {
	return Filter{VID: VID, PID: PID}
}

var errStop = errors.New("stop search")

func tryEnumerate(vid, pid uint16, log *slog.Logger) ([]usb.DeviceInfo, error) {
	var lastErr error
	for attempts := 0; attempts < 3; attempts++ {
		if attempts > 0 {
			time.Sleep(100 * time.Millisecond)
		}

		devices, err := usb.EnumerateHid(vid, pid)
		if err == nil && len(devices) > 0 {
			log.Debug("found HID devices", "count", len(devices))
			return devices, nil
		}
		if err != nil {
			lastErr = err
			log.Debug("HID enumeration error", "err", err)
		}
	}
	return nil, lastErr
}

// Search calls found for every converter matching f until found returns an
// error. os.ErrNotExist is returned when nothing matches.
func Search(f Filter, log *slog.Logger, found func(info usb.DeviceInfo) error) error {
	if !usb.Supported() {
		return fmt.Errorf("USB support not enabled on this platform")
	}
	if log == nil {
		log = slog.Default()
	}

	log.Info("searching for devices", "vid", fmt.Sprintf("%04x", f.VID), "pid", fmt.Sprintf("%04x", f.PID))

	devices, err := tryEnumerate(f.VID, f.PID, log)
	if err != nil {
		log.Warn("error enumerating devices", "err", err)
	}
	if len(devices) == 0 {
		return os.ErrNotExist
	}

	matched := 0
	for _, info := range devices {
		log.Debug("found device", "path", info.Path, "serial", info.Serial, "interface", info.Interface)

		if f.Serial != "" && info.Serial != f.Serial {
			log.Debug("skipping device: serial number mismatch", "want", f.Serial)
			continue
		}
		if f.Path != "" && info.Path != f.Path {
			log.Debug("skipping device: path mismatch", "want", f.Path)
			continue
		}
		matched++

		if err := found(info); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
	if matched == 0 {
		return os.ErrNotExist
	}
	return nil
}

// Open opens and configures the first converter matching f.
func Open(f Filter, cfg Config) (*Bridge, error) {
	cfg.setDefaults()

	var bridge *Bridge
	err := Search(f, cfg.Logger, func(info usb.DeviceInfo) error {
		cfg.Logger.Info("opening device", "path", info.Path)
		var lastErr error
		// opening can be flaky right after enumeration
		for attempts := 0; attempts < 3; attempts++ {
			if attempts > 0 {
				time.Sleep(100 * time.Millisecond)
			}
			dev, err := info.Open()
			if err != nil {
				lastErr = err
				cfg.Logger.Debug("open failed", "path", info.Path, "attempt", attempts+1, "err", err)
				continue
			}
			b, err := New(dev, cfg)
			if err != nil {
				dev.Close()
				return err
			}
			bridge = b
			return errStop
		}
		return fmt.Errorf("open %s: %w", info.Path, lastErr)
	})
	if err != nil {
		return nil, err
	}
	if bridge == nil {
		return nil, os.ErrNotExist
	}
	return bridge, nil
}
