// Package ft6x36 implements a driver for the FocalTech FT6x36 family of
// capacitive touch controllers (FT6206, FT6236, FT6236U).
//
// The driver works with any bus providing a write-then-read Tx primitive,
// such as a periph.io i2c.Bus or a TinyGo machine.I2C.
//
// Datasheet: https://www.buydisplay.com/download/ic/FT6236-FT6336-FT6436L-FT6436_Datasheet.pdf
package ft6x36

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers/touch"
)

type Device struct {
	bus  Bus
	addr uint16
	// Allocate enough space for a register address followed by
	// a point slot.
	buf [1 + pointSize]byte
}

type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

// Pin is the output used to drive the controller reset line.
// A periph.io gpio.PinOut satisfies it.
type Pin interface {
	Out(l gpio.Level) error
}

type Config struct {
	// Threshold for touch detection. Zero selects DefaultThreshold.
	Threshold uint8
}

// Info identifies the controller.
type Info struct {
	ChipID   uint8
	VendorID uint8
	Firmware uint8
}

// Point is a decoded touch point.
type Point struct {
	X, Y  uint16
	Event EventType
	// Weight is the touch weight, from the Px_WEIGHT register.
	Weight uint8
	// Area is the touch area, from the Px_MISC register.
	Area uint8
	// ID of the touch, 0 or 1 in practice.
	ID uint8
}

type EventType uint8

const (
	PressDown EventType = 0b00
	LiftUp    EventType = 0b01
	Contact   EventType = 0b10
)

func (e EventType) String() string {
	switch e {
	case PressDown:
		return "press-down"
	case LiftUp:
		return "lift-up"
	case Contact:
		return "contact"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(e))
	}
}

// Gesture is a gesture reported by the controller. Its value is the
// identifier in the gesture register.
type Gesture uint8

const (
	MoveUp    Gesture = 0x10
	MoveRight Gesture = 0x14
	MoveDown  Gesture = 0x18
	MoveLeft  Gesture = 0x1c
	ZoomIn    Gesture = 0x48
	ZoomOut   Gesture = 0x49
)

// ID returns the gesture register value of g.
func (g Gesture) ID() uint8 {
	return uint8(g)
}

func (g Gesture) String() string {
	switch g {
	case MoveUp:
		return "move-up"
	case MoveRight:
		return "move-right"
	case MoveDown:
		return "move-down"
	case MoveLeft:
		return "move-left"
	case ZoomIn:
		return "zoom-in"
	case ZoomOut:
		return "zoom-out"
	default:
		return fmt.Sprintf("Gesture(%#04x)", uint8(g))
	}
}

const (
	DefaultAddress   = 0x38
	DefaultThreshold = 0x40
)

func New(bus Bus) *Device {
	return NewWithAddress(bus, DefaultAddress)
}

func NewWithAddress(bus Bus, addr uint16) *Device {
	return &Device{
		bus:  bus,
		addr: addr,
	}
}

// DefaultConfig returns the configuration used for a zero Config.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold}
}

// Configure identifies the controller and sets the touch threshold.
// An unknown chip ID is logged, not returned as an error.
func (d *Device) Configure(cfg Config) error {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	id, err := d.readReg(regCHIPID)
	if err != nil {
		return err
	}
	if !knownChip(id) {
		glog.Warningf("ft6x36: invalid chip ID %#04x", id)
	}
	if glog.V(1) {
		if err := d.logRegisters(id); err != nil {
			return err
		}
	}
	return d.writeReg(regTH_GROUP, cfg.Threshold)
}

func (d *Device) logRegisters(id uint8) error {
	var vals [5]uint8
	for i, reg := range []uint8{regVENDID, regFIRMVERS, regPERIODACTIVE, regPERIODMONITOR, regG_MODE} {
		v, err := d.readReg(reg)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	glog.Infof("ft6x36: chip ID %#04x, vendor ID %#04x, firmware %#04x", id, vals[0], vals[1])
	glog.Infof("ft6x36: active report rate %#04x, monitor report rate %#04x", vals[2], vals[3])
	glog.Infof("ft6x36: interrupt mode %#04x", vals[4])
	return nil
}

// Info reads the chip, vendor and firmware identification registers.
func (d *Device) Info() (Info, error) {
	var inf Info
	var err error
	if inf.ChipID, err = d.readReg(regCHIPID); err != nil {
		return Info{}, err
	}
	if inf.VendorID, err = d.readReg(regVENDID); err != nil {
		return Info{}, err
	}
	if inf.Firmware, err = d.readReg(regFIRMVERS); err != nil {
		return Info{}, err
	}
	return inf, nil
}

// Reset cycles the reset line of the controller. The minimum timings
// are 5ms low and 300ms until the controller is ready.
func (d *Device) Reset(rst Pin, sleep func(time.Duration)) error {
	steps := []struct {
		level gpio.Level
		wait  time.Duration
	}{
		{gpio.High, 5 * time.Millisecond},
		{gpio.Low, 10 * time.Millisecond},
		{gpio.High, 350 * time.Millisecond},
	}
	for _, s := range steps {
		if err := rst.Out(s.level); err != nil {
			return err
		}
		sleep(s.wait)
	}
	return nil
}

// NumTouches returns the number of active touches, 0, 1 or 2. Invalid
// register values are reported as no touches.
func (d *Device) NumTouches() (int, error) {
	n, err := d.readReg(regTD_STATUS)
	if err != nil {
		return 0, err
	}
	return decodeNumTouches(n), nil
}

func decodeNumTouches(n uint8) int {
	if n&0b11 > 2 {
		return 0
	}
	return int(n)
}

// Point reads the nth touch point. It reports false if there is no
// such touch, or if the controller reports invalid data for it.
func (d *Device) Point(n int) (Point, bool, error) {
	touches, err := d.NumTouches()
	if err != nil {
		return Point{}, false, err
	}
	if n < 0 || n >= touches {
		return Point{}, false, nil
	}
	// The touch count is not masked, so n may address past the
	// register map.
	reg := regP1_XH + pointSize*n
	if reg+pointSize > 0x100 {
		return Point{}, false, nil
	}
	wr := d.buf[:1]
	rd := d.buf[1:]
	wr[0] = uint8(reg)
	if err := d.bus.Tx(d.addr, wr, rd); err != nil {
		return Point{}, false, err
	}
	p, ok := decodePoint(rd)
	return p, ok, nil
}

// Point0 reads the first touch point.
func (d *Device) Point0() (Point, bool, error) {
	return d.Point(0)
}

// Point1 reads the second touch point.
func (d *Device) Point1() (Point, bool, error) {
	return d.Point(1)
}

// Gesture reads the current gesture. Not all panels support gestures.
func (d *Device) Gesture() (Gesture, bool, error) {
	id, err := d.readReg(regGEST_ID)
	if err != nil {
		return 0, false, err
	}
	g, ok := decodeGesture(id)
	return g, ok, nil
}

// ReadTouchPoint implements touch.Pointer. Z is the touch weight, at
// least 1 while touched and 0 otherwise. Bus errors read as no touch.
func (d *Device) ReadTouchPoint() touch.Point {
	p, ok, err := d.Point0()
	if err != nil || !ok || p.Event == LiftUp {
		return touch.Point{}
	}
	return touch.Point{
		X: int(p.X),
		Y: int(p.Y),
		Z: max(1, int(p.Weight)),
	}
}

// decodePoint decodes a point slot. The slot layout is
//
//	0: event[7:6] | x[10:8]
//	1: x[7:0]
//	2: id[7:4] | y[10:8]
//	3: y[7:0]
//	4: weight
//	5: area[3:0]
func decodePoint(b []byte) (Point, bool) {
	event, ok := decodeEvent(b[0] >> 6)
	if !ok {
		return Point{}, false
	}
	id := b[2] >> 4
	if id == invalidTouchID {
		return Point{}, false
	}
	return Point{
		X:      uint16(b[0]&0b111)<<8 | uint16(b[1]),
		Y:      uint16(b[2]&0b111)<<8 | uint16(b[3]),
		Event:  event,
		Weight: b[4],
		Area:   b[5] & 0b1111,
		ID:     id,
	}, true
}

func decodeEvent(e uint8) (EventType, bool) {
	switch e := EventType(e); e {
	case PressDown, LiftUp, Contact:
		return e, true
	}
	return 0, false
}

func decodeGesture(id uint8) (Gesture, bool) {
	switch g := Gesture(id); g {
	case MoveUp, MoveRight, MoveDown, MoveLeft, ZoomIn, ZoomOut:
		return g, true
	}
	return 0, false
}

func knownChip(id uint8) bool {
	switch id {
	case chipFT6206, chipFT6236, chipFT6236U:
		return true
	}
	return false
}

func (d *Device) writeReg(reg, val uint8) error {
	req := d.buf[:2]
	req[0], req[1] = reg, val
	return d.bus.Tx(d.addr, req, nil)
}

func (d *Device) readReg(reg uint8) (uint8, error) {
	req, resp := d.buf[:1], d.buf[1:2]
	req[0] = reg
	if err := d.bus.Tx(d.addr, req, resp); err != nil {
		return 0, err
	}
	return resp[0], nil
}

const (
	pointSize      = 6
	invalidTouchID = 0x0f

	chipFT6206  = 0x06
	chipFT6236  = 0x36
	chipFT6236U = 0x64

	regGEST_ID       = 0x01
	regTD_STATUS     = 0x02
	regP1_XH         = 0x03
	regTH_GROUP      = 0x80
	regPERIODACTIVE  = 0x88
	regPERIODMONITOR = 0x89
	regCHIPID        = 0xa3
	regG_MODE        = 0xa4
	regFIRMVERS      = 0xa6
	regVENDID        = 0xa8
)
