// Package input turns samples from a touch controller into press, move
// and release events in display coordinates.
package input

import (
	"errors"
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/touch"
	"touchkit.dev/touchmap"
)

type Event struct {
	// Pos is the position in display coordinates. For releases
	// it is the last pressed position.
	Pos image.Point
	// Raw is the controller sample, zero for releases.
	Raw     touch.Point
	Pressed bool
	// Moved is set for position changes after the initial press.
	Moved bool
}

type Config struct {
	Source touch.Pointer
	Mapper *touchmap.Mapper
	// IRQ is the active low pen interrupt of the controller. If
	// nil, the controller is polled.
	IRQ gpio.PinIn
	// Interval between samples while polling or pressed.
	Interval time.Duration
	// Display is the size of the display in its native orientation.
	Display image.Point
	// Rotation returns the current display rotation. Nil means
	// drivers.Rotation0.
	Rotation func() drivers.Rotation
}

const (
	defaultInterval = 10 * time.Millisecond
	// idleTimeout bounds the wait for a pen interrupt, so the
	// watcher notices when it is closed.
	idleTimeout = 250 * time.Millisecond
)

// Open starts watching the touch controller and sends events to ch.
// The returned function stops the watcher and waits for it to exit.
func Open(cfg Config, ch chan<- Event) (func(), error) {
	if cfg.Source == nil || cfg.Mapper == nil {
		return nil, errors.New("input: missing touch source or mapper")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.IRQ != nil {
		if err := cfg.IRQ.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return nil, fmt.Errorf("input: %s: %w", cfg.IRQ, err)
		}
	}
	w := &watcher{
		cfg:     cfg,
		ch:      ch,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.run()
	return func() {
		close(w.done)
		<-w.stopped
	}, nil
}

type watcher struct {
	cfg     Config
	ch      chan<- Event
	done    chan struct{}
	stopped chan struct{}
}

func (w *watcher) run() {
	defer close(w.stopped)
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	pressed := false
	var last image.Point
	for {
		if !pressed && w.cfg.IRQ != nil {
			edge := w.cfg.IRQ.WaitForEdge(idleTimeout)
			if w.closed() {
				return
			}
			if !edge {
				continue
			}
		} else {
			select {
			case <-ticker.C:
			case <-w.done:
				return
			}
		}
		p := w.cfg.Source.ReadTouchPoint()
		if p.Z == 0 {
			if pressed {
				pressed = false
				if !w.send(Event{Pos: last}) {
					return
				}
			}
			continue
		}
		pos := w.pos(p)
		if pressed && pos == last {
			continue
		}
		e := Event{Pos: pos, Raw: p, Pressed: true, Moved: pressed}
		pressed, last = true, pos
		if !w.send(e) {
			return
		}
	}
}

// pos maps a sample to the display in its current rotation.
func (w *watcher) pos(p touch.Point) image.Point {
	r := drivers.Rotation(drivers.Rotation0)
	if w.cfg.Rotation != nil {
		r = w.cfg.Rotation()
	}
	dims := w.cfg.Display
	switch r {
	case drivers.Rotation90, drivers.Rotation270:
		dims.X, dims.Y = dims.Y, dims.X
	}
	return w.cfg.Mapper.Map(image.Pt(p.X, p.Y), dims, r)
}

func (w *watcher) send(e Event) bool {
	select {
	case w.ch <- e:
		return true
	case <-w.done:
		return false
	}
}

func (w *watcher) closed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}
