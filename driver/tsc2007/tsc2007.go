// Package tsc2007 implements a driver for the Texas Instruments TSC2007
// 4-wire resistive touch screen controller.
//
// Datasheet: https://www.ti.com/lit/ds/symlink/tsc2007.pdf
package tsc2007

import (
	"tinygo.org/x/drivers/touch"
	"touchkit.dev/touchmap"
)

type Device struct {
	bus  Bus
	addr uint16
	cmd  [1]byte
	buf  [2]byte
}

type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

// Function selects the converter input or driver configuration of
// a command.
type Function uint8

const (
	MeasureTemp0   Function = 0
	MeasureAux     Function = 2
	MeasureTemp1   Function = 4
	ActivateX      Function = 8
	ActivateY      Function = 9
	ActivateYPlusX Function = 10
	SetupCommand   Function = 11
	MeasureX       Function = 12
	MeasureY       Function = 13
	MeasureZ1      Function = 14
	MeasureZ2      Function = 15
)

// Power selects the power-down mode after a command.
type Power uint8

const (
	PowerDownIRQOn Power = 0
	ADCOnIRQOff    Power = 1
	ADCOffIRQOn    Power = 2
)

type Resolution uint8

const (
	Resolution12Bit Resolution = 0
	Resolution8Bit  Resolution = 1
)

const Address = 0x48

// Calibration limits of a typical panel, in ADC counts.
const (
	MinX = 550
	MaxX = 3600
	MinY = 350
	MaxY = 3700
	// MinPressure is the Z1 reading above which the panel is
	// considered touched.
	MinPressure = 100
)

// DefaultCalibration returns the calibration for a width×height panel
// with the typical limits.
func DefaultCalibration(width, height int) touchmap.Calibration {
	return touchmap.Calibration{
		Width:  width,
		Height: height,
		MinX:   MinX,
		MaxX:   MaxX,
		MinY:   MinY,
		MaxY:   MaxY,
	}
}

func New(bus Bus) *Device {
	return &Device{
		bus:  bus,
		addr: Address,
	}
}

// Command runs a conversion and returns its 12-bit result.
func (d *Device) Command(f Function, p Power, r Resolution) (uint16, error) {
	d.cmd[0] = commandByte(f, p, r)
	if err := d.bus.Tx(d.addr, d.cmd[:], d.buf[:]); err != nil {
		return 0, err
	}
	return uint16(d.buf[0])<<4 | uint16(d.buf[1])>>4, nil
}

// commandByte encodes a command as
//
//	function[7:4] | power[3:2] | resolution[1] | reserved[0]
func commandByte(f Function, p Power, r Resolution) byte {
	return byte(f&0x0f)<<4 | byte(p&0x03)<<2 | byte(r&0x01)<<1
}

// Touch measures the touch position and the Z1 pressure. The
// controller is left powered down with its pen interrupt enabled,
// ready to signal the next touch.
func (d *Device) Touch() (x, y, z uint16, err error) {
	if x, err = d.Command(MeasureX, ADCOnIRQOff, Resolution12Bit); err != nil {
		return 0, 0, 0, err
	}
	if y, err = d.Command(MeasureY, ADCOnIRQOff, Resolution12Bit); err != nil {
		return 0, 0, 0, err
	}
	if z, err = d.Command(MeasureZ1, ADCOnIRQOff, Resolution12Bit); err != nil {
		return 0, 0, 0, err
	}
	if _, err = d.Command(MeasureTemp0, PowerDownIRQOn, Resolution12Bit); err != nil {
		return 0, 0, 0, err
	}
	return x, y, z, nil
}

// Touched reports whether the panel is pressed. A bus error reads as
// not touched; use Pressed to tell the two apart.
func (d *Device) Touched() bool {
	pressed, _ := d.Pressed()
	return pressed
}

// Pressed is like Touched but returns bus errors.
func (d *Device) Pressed() (bool, error) {
	_, _, z, err := d.Touch()
	if err != nil {
		return false, err
	}
	return z > MinPressure, nil
}

// Pressure measures both pressure channels. The touch resistance is
// proportional to x*(z2/z1 - 1).
func (d *Device) Pressure() (z1, z2 uint16, err error) {
	if z1, err = d.Command(MeasureZ1, ADCOnIRQOff, Resolution12Bit); err != nil {
		return 0, 0, err
	}
	if z2, err = d.Command(MeasureZ2, PowerDownIRQOn, Resolution12Bit); err != nil {
		return 0, 0, err
	}
	return z1, z2, nil
}

// Temperature reads the raw TEMP0 channel.
func (d *Device) Temperature() (uint16, error) {
	return d.Command(MeasureTemp0, PowerDownIRQOn, Resolution12Bit)
}

// ReadTouchPoint implements touch.Pointer. Z is the Z1 pressure, or 0
// when the panel is not touched or the bus fails.
func (d *Device) ReadTouchPoint() touch.Point {
	x, y, z, err := d.Touch()
	if err != nil || z <= MinPressure {
		return touch.Point{}
	}
	return touch.Point{X: int(x), Y: int(y), Z: int(z)}
}
