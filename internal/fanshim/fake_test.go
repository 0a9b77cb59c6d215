package fanshim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

var _ Device = (*FakeDevice)(nil)

func TestFakeDeviceRecords(t *testing.T) {
	f := NewFakeDevice()

	require.NoError(t, f.SetFan(true))
	require.NoError(t, f.SetFan(false))
	require.NoError(t, f.SetLight(logic.Blue))

	assert.Equal(t, []bool{true, false}, f.FanCalls())
	assert.Equal(t, []logic.RGB{logic.Blue}, f.Lights())
}

func TestFakeDeviceErrors(t *testing.T) {
	f := NewFakeDevice()
	f.FanError = errors.New("simulated fan error")
	f.LightError = errors.New("simulated light error")

	assert.EqualError(t, f.SetFan(true), "simulated fan error")
	assert.EqualError(t, f.SetLight(logic.Off), "simulated light error")
	assert.Empty(t, f.FanCalls())
	assert.Empty(t, f.Lights())
}

func TestFakeDeviceEmit(t *testing.T) {
	f := NewFakeDevice()

	ev := logic.ButtonEvent{Kind: logic.ButtonReleased, WasHeld: true}
	require.True(t, f.Emit(ev))
	assert.Equal(t, ev, <-f.Events())

	for i := 0; i < eventBuffer; i++ {
		require.True(t, f.Emit(ev))
	}
	assert.False(t, f.Emit(ev), "full queue drops instead of blocking")
}

func TestFakeDeviceCloseAndReset(t *testing.T) {
	f := NewFakeDevice()
	require.NoError(t, f.SetFan(true))
	assert.False(t, f.Closed())

	require.NoError(t, f.Close())
	assert.True(t, f.Closed())

	f.Reset()
	assert.False(t, f.Closed())
	assert.Empty(t, f.FanCalls())
}
