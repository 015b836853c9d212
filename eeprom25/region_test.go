package eeprom25_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/hotboards/ee25/eeprom25"
)

func TestRegionAccess(t *testing.T) {
	dev, rec := newDevice(t, eeprom25.Density2Kbit)
	r := dev.Region("")

	if r.GetName() != "EEPROM" || r.GetLength() != 256 || r.GetAlignment() != 1 {
		t.Fatalf("region %s len %d align %d", r.GetName(), r.GetLength(), r.GetAlignment())
	}

	n, err := r.Access(true, 250, []byte("region-test"))
	if err != nil || n != 6 {
		t.Fatalf("write Access = %d, %v", n, err)
	}
	buf := make([]byte, 8)
	n, err = r.Access(false, 250, buf)
	if err != nil || n != 6 || string(buf[:n]) != "region" {
		t.Fatalf("read Access = %d %q %v", n, buf[:n], err)
	}

	for _, addr := range []int{-1, 256, 1000} {
		if n, err := r.Access(false, addr, buf); n != 0 || err != nil {
			t.Fatalf("Access(%d) = %d, %v", addr, n, err)
		}
	}
	assertClean(t, rec.chip)
}

func TestRegionReaderWriterAt(t *testing.T) {
	dev, _ := newDevice(t, eeprom25.Density1Kbit)
	r := dev.Region("boot")

	if n, err := r.WriteAt([]byte("hello"), 60); n != 5 || err != nil {
		t.Fatalf("WriteAt = %d, %v", n, err)
	}

	buf := make([]byte, 5)
	if n, err := r.ReadAt(buf, 60); n != 5 || err != nil || string(buf) != "hello" {
		t.Fatalf("ReadAt = %d %q %v", n, buf, err)
	}

	if n, err := r.WriteAt([]byte("overflow"), 124); n != 4 || err != io.EOF {
		t.Fatalf("WriteAt past end = %d, %v", n, err)
	}
	if n, err := r.ReadAt(buf, 128); n != 0 || err != io.EOF {
		t.Fatalf("ReadAt at end = %d, %v", n, err)
	}
	_, err := r.ReadAt(buf, -1)
	var re *eeprom25.RangeError
	if !errors.As(err, &re) || !errors.Is(err, eeprom25.ErrInvalidRange) {
		t.Fatalf("ReadAt(-1) err = %v", err)
	}
	if re.Op != "read" || re.Address != -1 || re.Count != len(buf) {
		t.Fatalf("ReadAt(-1) err = %+v", *re)
	}
	if got, want := err.Error(), "read: 5 bytes at negative offset -1"; got != want {
		t.Fatalf("ReadAt(-1) message %q, want %q", got, want)
	}
	if _, err := r.WriteAt(buf, -8); !errors.As(err, &re) || re.Op != "write" || re.Address != -8 {
		t.Fatalf("WriteAt(-8) err = %v", err)
	}

	sr := io.NewSectionReader(r, 60, 5)
	got, err := io.ReadAll(sr)
	if err != nil || !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("SectionReader = %q, %v", got, err)
	}
}
