package main

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"tinygo.org/x/drivers"
)

func TestParseThreshold(t *testing.T) {
	for _, v := range []uint{1, 0x40, 0xff} {
		got, err := parseThreshold(v)
		if err != nil || uint(got) != v {
			t.Errorf("parseThreshold(%d) = (%d, %v)", v, got, err)
		}
	}
	for _, v := range []uint{0, 0x100, 1000} {
		if _, err := parseThreshold(v); err == nil {
			t.Errorf("parseThreshold(%d) succeeded", v)
		}
	}
}

func TestParseRotation(t *testing.T) {
	tests := []struct {
		in   string
		want drivers.Rotation
	}{
		{"0", drivers.Rotation0},
		{"1", drivers.Rotation90},
		{"3\n", drivers.Rotation270},
		{"90", drivers.Rotation90},
		{"180", drivers.Rotation180},
		{" 270 ", drivers.Rotation270},
	}
	for _, test := range tests {
		got, err := parseRotation(test.in)
		if err != nil {
			t.Errorf("parseRotation(%q): %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("parseRotation(%q) = %d, want %d", test.in, got, test.want)
		}
	}
	for _, in := range []string{"", "4", "45", "-1", "left"} {
		if _, err := parseRotation(in); err == nil {
			t.Errorf("parseRotation(%q) succeeded", in)
		}
	}
}

func TestWatchRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotation")
	if err := os.WriteFile(path, []byte("90\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rot := new(atomic.Uint32)
	stop, err := watchRotation(path, rot)
	if err != nil {
		t.Fatal(err)
	}
	defer stop()
	if got := rot.Load(); got != uint32(drivers.Rotation90) {
		t.Fatalf("initial rotation %d, want %d", got, drivers.Rotation90)
	}
	if err := os.WriteFile(path, []byte("180\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for rot.Load() != uint32(drivers.Rotation180) {
		if time.Now().After(deadline) {
			t.Fatalf("rotation %d after update, want %d", rot.Load(), drivers.Rotation180)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatchRotationMissing(t *testing.T) {
	if _, err := watchRotation(filepath.Join(t.TempDir(), "missing"), new(atomic.Uint32)); err == nil {
		t.Error("watched a missing rotation file")
	}
}
