// Package input applies button events to the Controller.
package input

import (
	"sync"
	"time"

	"github.com/sweeney/fanshim-mqtt/internal/led"
	"github.com/sweeney/fanshim-mqtt/internal/logger"
	"github.com/sweeney/fanshim-mqtt/internal/logic"
)

// Hold feedback: three blue flashes, 40ms on and 40ms off.
const (
	BlinkCount  = 3
	BlinkPeriod = 40 * time.Millisecond
)

// Handler translates button events into Controller transitions.
type Handler struct {
	ctrl *logic.Controller
	leds *led.Updater
	now  func() time.Time

	// blinks tracks in-flight hold feedback so shutdown can wait for it
	// before switching the LED off.
	blinks sync.WaitGroup
}

// NewHandler creates a Handler.
func NewHandler(ctrl *logic.Controller, leds *led.Updater, now func() time.Time) *Handler {
	return &Handler{ctrl: ctrl, leds: leds, now: now}
}

// Handle applies ev. Held starts the blink sequence in the background and
// returns immediately; Released is applied synchronously.
func (h *Handler) Handle(ev logic.ButtonEvent) (logic.ReleaseAction, error) {
	switch ev.Kind {
	case logic.ButtonHeld:
		if !h.leds.Enabled() {
			return logic.ReleaseIgnored, nil
		}
		h.blinks.Add(1)
		go func() {
			defer h.blinks.Done()
			if err := h.leds.Blink(logic.Blue, BlinkCount, BlinkPeriod); err != nil {
				logger.Error().Err(err).Msg("hold feedback blink failed")
			}
		}()
		return logic.ReleaseIgnored, nil

	case logic.ButtonReleased:
		action, err := h.ctrl.HandleRelease(ev.WasHeld, h.now())
		if err != nil {
			return action, err
		}
		switch action {
		case logic.ReleaseToggledMode:
			logger.Info().Bool("automatic", h.ctrl.Armed()).Msg("mode switched by button")
		case logic.ReleaseToggledFan:
			logger.Info().Bool("on", h.ctrl.Enabled()).Msg("fan toggled by button")
		}
		return action, nil
	}
	return logic.ReleaseIgnored, nil
}

// Wait blocks until in-flight blink sequences finish.
func (h *Handler) Wait() {
	h.blinks.Wait()
}
