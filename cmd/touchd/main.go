// command touchd reads a touch controller on an I2C bus and logs touch
// events in display coordinates.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/touch"
	"touchkit.dev/driver/ft6x36"
	"touchkit.dev/driver/tsc2007"
	"touchkit.dev/input"
	"touchkit.dev/touchmap"
)

// Version is set by the Go linker with -ldflags='-X main.Version=...'.
var Version string

var (
	busName      = flag.String("bus", "", "I2C bus name or number, empty for the first bus")
	chip         = flag.String("chip", "ft6x36", "touch controller, ft6x36 or tsc2007")
	resetPin     = flag.String("reset", "", "controller reset GPIO (ft6x36 only)")
	irqPin       = flag.String("irq", "", "pen interrupt GPIO, empty to poll")
	width        = flag.Int("width", 240, "panel width in pixels")
	height       = flag.Int("height", 320, "panel height in pixels")
	rotation     = flag.String("rotation", "0", "display rotation, 0-3 or degrees")
	rotationFile = flag.String("rotation-file", "", "file holding the display rotation, re-read when changed")
	calibration  = flag.String("calibration", "", "calibration file")
	threshold    = flag.Uint("threshold", ft6x36.DefaultThreshold, "touch threshold, 1-255 (ft6x36 only)")
	speed        = flag.Int("speed", 400, "I2C bus speed in kHz")
	interval     = flag.Duration("interval", 10*time.Millisecond, "sample interval")
)

func main() {
	flag.Parse()
	err := run()
	glog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "touchd: %v\n", err)
		os.Exit(2)
	}
}

func run() error {
	if Version != "" {
		glog.Infof("touchd %s", Version)
	}
	rot := new(atomic.Uint32)
	r, err := parseRotation(*rotation)
	if err != nil {
		return err
	}
	rot.Store(uint32(r))
	if *rotationFile != "" {
		stop, err := watchRotation(*rotationFile, rot)
		if err != nil {
			return err
		}
		defer stop()
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return fmt.Errorf("i2c: %w", err)
	}
	defer bus.Close()
	if err := bus.SetSpeed(physic.Frequency(*speed) * physic.KiloHertz); err != nil {
		// Not all buses support changing the speed.
		glog.Warningf("i2c: %s: %v", bus, err)
	}
	var tb i2c.Bus = bus
	if glog.V(2) {
		tb = &tracingBus{bus}
	}
	src, cal, err := openController(tb)
	if err != nil {
		return err
	}
	if *calibration != "" {
		cal, err = touchmap.Load(*calibration)
		if err != nil {
			return err
		}
	}
	m, err := touchmap.New(cal)
	if err != nil {
		return err
	}
	var irq gpio.PinIn
	if *irqPin != "" {
		p := gpioreg.ByName(*irqPin)
		if p == nil {
			return fmt.Errorf("unknown interrupt pin %q", *irqPin)
		}
		irq = p
	}

	events := make(chan input.Event, 10)
	stop, err := input.Open(input.Config{
		Source:   src,
		Mapper:   m,
		IRQ:      irq,
		Interval: *interval,
		Display:  m.Size(),
		Rotation: func() drivers.Rotation {
			return drivers.Rotation(rot.Load())
		},
	}, events)
	if err != nil {
		return err
	}
	defer stop()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case e := <-events:
			logEvent(e)
		case s := <-sigs:
			glog.Infof("touchd: %v", s)
			return nil
		}
	}
}

// openController initializes the controller and returns it along with
// its default calibration.
func openController(bus i2c.Bus) (touch.Pointer, touchmap.Calibration, error) {
	switch *chip {
	case "ft6x36":
		d := ft6x36.New(bus)
		if *resetPin != "" {
			rst := gpioreg.ByName(*resetPin)
			if rst == nil {
				return nil, touchmap.Calibration{}, fmt.Errorf("unknown reset pin %q", *resetPin)
			}
			if err := d.Reset(rst, time.Sleep); err != nil {
				return nil, touchmap.Calibration{}, fmt.Errorf("ft6x36: reset: %w", err)
			}
		}
		th, err := parseThreshold(*threshold)
		if err != nil {
			return nil, touchmap.Calibration{}, fmt.Errorf("ft6x36: %w", err)
		}
		if err := d.Configure(ft6x36.Config{Threshold: th}); err != nil {
			return nil, touchmap.Calibration{}, fmt.Errorf("ft6x36: %w", err)
		}
		inf, err := d.Info()
		if err != nil {
			return nil, touchmap.Calibration{}, fmt.Errorf("ft6x36: %w", err)
		}
		glog.Infof("ft6x36: chip %#04x, vendor %#04x, firmware %d", inf.ChipID, inf.VendorID, inf.Firmware)
		// The controller reports panel pixels.
		cal := touchmap.Calibration{Width: *width, Height: *height, MaxX: *width, MaxY: *height}
		return d, cal, nil
	case "tsc2007":
		d := tsc2007.New(bus)
		// Leave the controller idle with the pen interrupt armed.
		if _, err := d.Temperature(); err != nil {
			return nil, touchmap.Calibration{}, fmt.Errorf("tsc2007: %w", err)
		}
		return d, tsc2007.DefaultCalibration(*width, *height), nil
	default:
		return nil, touchmap.Calibration{}, errors.New("-chip must be 'ft6x36' or 'tsc2007'")
	}
}

func logEvent(e input.Event) {
	switch {
	case !e.Pressed:
		glog.Infof("release %v", e.Pos)
	case e.Moved:
		glog.V(1).Infof("move %v (raw %d,%d z %d)", e.Pos, e.Raw.X, e.Raw.Y, e.Raw.Z)
	default:
		glog.Infof("press %v (raw %d,%d z %d)", e.Pos, e.Raw.X, e.Raw.Y, e.Raw.Z)
	}
}

// tracingBus logs every transfer.
type tracingBus struct {
	i2c.Bus
}

func (b *tracingBus) Tx(addr uint16, w, r []byte) error {
	err := b.Bus.Tx(addr, w, r)
	glog.Infof("i2c: %#04x: w %#x r %#x: %v", addr, w, r, err)
	return err
}

// parseThreshold validates a touch threshold. Zero is rejected, since
// a zero Config selects the default threshold.
func parseThreshold(v uint) (uint8, error) {
	if v == 0 || v > 0xff {
		return 0, fmt.Errorf("threshold %d out of range [1,255]", v)
	}
	return uint8(v), nil
}
