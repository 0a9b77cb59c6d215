//go:build !linux

package fanshim

import (
	"errors"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

var errUnsupported = errors.New("fanshim: not supported on this platform (requires Linux)")

// RealDevice is not available on non-Linux platforms.
type RealDevice struct{}

// NewRealDevice returns an error on non-Linux platforms.
func NewRealDevice(opts Options) (*RealDevice, error) {
	return nil, errUnsupported
}

// SetFan is not implemented on non-Linux platforms.
func (d *RealDevice) SetFan(on bool) error {
	return errUnsupported
}

// SetLight is not implemented on non-Linux platforms.
func (d *RealDevice) SetLight(c logic.RGB) error {
	return errUnsupported
}

// Events returns nil on non-Linux platforms.
func (d *RealDevice) Events() <-chan logic.ButtonEvent {
	return nil
}

// Close is not implemented on non-Linux platforms.
func (d *RealDevice) Close() error {
	return nil
}
