package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"tinygo.org/x/drivers"
)

// parseRotation parses a rotation given either as an index 0-3 or in
// degrees.
func parseRotation(s string) (drivers.Rotation, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("rotation: %w", err)
	}
	switch n {
	case 0, 1, 2, 3:
		return drivers.Rotation(n), nil
	case 90, 180, 270:
		return drivers.Rotation(n / 90), nil
	default:
		return 0, fmt.Errorf("rotation: invalid rotation %d", n)
	}
}

func loadRotation(path string, rot *atomic.Uint32) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rotation: %w", err)
	}
	r, err := parseRotation(string(b))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if old := rot.Swap(uint32(r)); old != uint32(r) {
		glog.Infof("rotation: %d", r)
	}
	return nil
}

// watchRotation loads the rotation from path and reloads it whenever
// the file changes. The directory is watched rather than the file, to
// catch replacements by rename.
func watchRotation(path string, rot *atomic.Uint32) (func(), error) {
	if err := loadRotation(path, rot); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("rotation: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("rotation: %w", err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != filepath.Clean(path) {
					continue
				}
				if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := loadRotation(path, rot); err != nil {
					glog.Warningf("%v", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				glog.Warningf("rotation: %v", err)
			}
		}
	}()
	return func() {
		w.Close()
		<-done
	}, nil
}
