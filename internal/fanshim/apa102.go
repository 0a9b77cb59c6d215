package fanshim

import (
	"fmt"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

// pinSetter is the subset of a GPIO output line used for bit-banging.
type pinSetter interface {
	SetValue(value int) error
}

// apa102 bit-bangs a single APA102 pixel over two output lines.
type apa102 struct {
	data  pinSetter
	clock pinSetter
}

// globalBrightness is the 5-bit APA102 brightness. Color brightness is
// applied to the RGB values instead.
const globalBrightness = 31

// apa102Frame returns the bytes for one pixel: start frame, LED frame
// (brightness, blue, green, red), end frame.
func apa102Frame(c logic.RGB) []byte {
	return []byte{
		0x00, 0x00, 0x00, 0x00,
		0xE0 | globalBrightness, c.B, c.G, c.R,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
}

func (a *apa102) write(c logic.RGB) error {
	for _, b := range apa102Frame(c) {
		if err := a.writeByte(b); err != nil {
			return err
		}
	}
	return nil
}

// writeByte shifts b out MSB first; data is latched on the rising clock edge.
func (a *apa102) writeByte(b byte) error {
	for i := 7; i >= 0; i-- {
		if err := a.data.SetValue(int(b>>uint(i)) & 1); err != nil {
			return fmt.Errorf("set data: %w", err)
		}
		if err := a.clock.SetValue(1); err != nil {
			return fmt.Errorf("clock high: %w", err)
		}
		if err := a.clock.SetValue(0); err != nil {
			return fmt.Errorf("clock low: %w", err)
		}
	}
	return nil
}

// closeLight blanks the pixel when the device closes. A disabled LED is not
// written at all.
func closeLight(a *apa102, enabled bool) error {
	if a == nil || !enabled {
		return nil
	}
	if err := a.write(logic.Off); err != nil {
		return fmt.Errorf("led off: %w", err)
	}
	return nil
}
