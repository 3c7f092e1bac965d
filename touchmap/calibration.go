package touchmap

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
	dm, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// Encode encodes c as a CBOR map with integer keys.
func (c Calibration) Encode() []byte {
	enc, err := encMode.Marshal(c)
	if err != nil {
		// Always valid by construction.
		panic(err)
	}
	return enc
}

// Decode decodes a calibration encoded by Encode.
func Decode(enc []byte) (Calibration, error) {
	var c Calibration
	if err := decMode.Unmarshal(enc, &c); err != nil {
		return Calibration{}, fmt.Errorf("touchmap: calibration: %w", err)
	}
	return c, nil
}

// Load reads a calibration file.
func Load(path string) (Calibration, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return Calibration{}, fmt.Errorf("touchmap: %w", err)
	}
	c, err := Decode(enc)
	if err != nil {
		return Calibration{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Save writes c to a calibration file.
func (c Calibration) Save(path string) error {
	if err := os.WriteFile(path, c.Encode(), 0o640); err != nil {
		return fmt.Errorf("touchmap: %w", err)
	}
	return nil
}
