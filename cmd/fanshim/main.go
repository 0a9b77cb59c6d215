// Command fanshim drives a Pimoroni Fan SHIM from CPU temperature and
// publishes the readings and fan state to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sweeney/fanshim-mqtt/internal/config"
	"github.com/sweeney/fanshim-mqtt/internal/fanshim"
	"github.com/sweeney/fanshim-mqtt/internal/history"
	"github.com/sweeney/fanshim-mqtt/internal/input"
	"github.com/sweeney/fanshim-mqtt/internal/led"
	"github.com/sweeney/fanshim-mqtt/internal/logger"
	"github.com/sweeney/fanshim-mqtt/internal/logic"
	"github.com/sweeney/fanshim-mqtt/internal/mqtt"
	"github.com/sweeney/fanshim-mqtt/internal/sensor"
	"github.com/sweeney/fanshim-mqtt/internal/status"
	"github.com/sweeney/fanshim-mqtt/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fanshim: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Stdout, cfg.Verbose, logger.IsService())

	if cfg.PrintConfig {
		out, err := cfg.YAML()
		if err != nil {
			logger.Fatal().Err(err).Msg("render config")
		}
		os.Stdout.Write(out)
		return
	}

	sampler := sensor.NewSysfsSampler(sensor.DefaultRoot)
	if cfg.PrintState {
		printState(os.Stdout, sampler)
		return
	}

	if err := run(cfg, sampler); err != nil {
		logger.Fatal().Err(err).Msg("fatal")
	}
}

func printState(w io.Writer, s sensor.Sampler) {
	temp := sensor.ReadTemperature(s)
	fmt.Fprintf(w, "Temperature: %.2f°C\n", temp)
	if f, err := s.Frequency(); err != nil {
		fmt.Fprintf(w, "Frequency: unavailable (%v)\n", err)
	} else {
		fmt.Fprintf(w, "Frequency: %.0f / %.0f MHz\n", f.Current, f.Max)
	}
}

func run(cfg *config.Config, sampler sensor.Sampler) error {
	// Registered before the fan can be switched on so a signal during
	// startup still reaches shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Host:      cfg.MQTT.Host,
		Port:      cfg.MQTT.Port,
		User:      cfg.MQTT.User,
		Password:  cfg.MQTT.Password,
		KeepAlive: cfg.MQTT.KeepAliveDuration(),
	})
	if err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	defer publisher.Close()
	logger.Info().Str("broker", cfg.MQTT.Broker()).Msg("connected to mqtt broker")

	dev, err := fanshim.NewRealDevice(fanshim.Options{
		Chip:     fanshim.DefaultChip,
		Pins:     fanshim.DefaultPins,
		HoldTime: cfg.HoldTime,
		Button:   !cfg.NoButton,
		LED:      !cfg.NoLED,
	})
	if err != nil {
		return fmt.Errorf("init fanshim: %w", err)
	}
	defer dev.Close()

	if err := dev.SetFan(false); err != nil {
		return fmt.Errorf("fan off: %w", err)
	}

	thresholds := logic.Config{
		OnThreshold:  cfg.OnThreshold,
		OffThreshold: cfg.OffThreshold,
		Preempt:      cfg.Preempt,
	}
	ctrl := logic.NewController(thresholds, dev)
	leds := led.NewUpdater(dev, led.Config{
		Enabled:      !cfg.NoLED,
		Brightness:   cfg.Brightness,
		OffThreshold: cfg.OffThreshold,
		OnThreshold:  cfg.OnThreshold,
	})
	if err := leds.Init(); err != nil {
		logger.Warn().Err(err).Msg("led init failed")
	}

	startTime := time.Now()
	temp := sensor.ReadTemperature(sampler)
	if on, err := ctrl.Prime(temp, startTime); err != nil {
		logger.Error().Err(err).Msg("initial fan switch failed")
	} else if on {
		logger.Info().Float64("temp", temp).Msg("already above on-threshold, fan on")
	}

	var hist history.Recorder = history.Nop{}
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			logger.Warn().Err(err).Msg("history disabled")
		} else {
			hist = store
		}
	}

	tracker := status.NewTracker(startTime, status.Config{
		OnThreshold:  cfg.OnThreshold,
		OffThreshold: cfg.OffThreshold,
		DelayMs:      cfg.Delay.Milliseconds(),
		Preempt:      cfg.Preempt,
		Button:       !cfg.NoButton,
		LED:          !cfg.NoLED,
		Brightness:   cfg.Brightness,
		Broker:       cfg.MQTT.Broker(),
		HTTPAddr:     cfg.HTTPAddr,
	})
	tracker.Update(ctrl.State())
	tracker.SetMQTTConnected(publisher.IsConnected())

	var srv *web.Server
	if cfg.HTTPAddr != "" {
		srv = web.New(cfg.HTTPAddr, tracker, hist)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("http server error")
			}
		}()
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http status server listening")
	}

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.EventStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		logger.Warn().Err(err).Msg("failed to publish startup event")
	}

	logger.Info().
		Float64("on_threshold", cfg.OnThreshold).
		Float64("off_threshold", cfg.OffThreshold).
		Dur("delay", cfg.Delay).
		Bool("preempt", cfg.Preempt).
		Bool("button", !cfg.NoButton).
		Bool("led", !cfg.NoLED).
		Msg("started")

	var events <-chan logic.ButtonEvent
	if !cfg.NoButton {
		events = dev.Events()
	}

	ticker := time.NewTicker(cfg.Delay)
	defer ticker.Stop()

	l := &loop{
		sampler:    sampler,
		ctrl:       ctrl,
		leds:       leds,
		input:      input.NewHandler(ctrl, leds, time.Now),
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		history:    hist,
		thresholds: thresholds,
		now:        time.Now,
	}
	err = l.runLoop(ticker.C, events, sigCh)

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("http shutdown")
		}
		cancel()
	}
	if err := hist.Close(); err != nil {
		logger.Warn().Err(err).Msg("history close")
	}
	return err
}

// loop is the control loop and its collaborators. All Controller transitions
// happen on the goroutine running runLoop.
type loop struct {
	sampler    sensor.Sampler
	ctrl       *logic.Controller
	leds       *led.Updater
	input      *input.Handler
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	history    history.Recorder
	thresholds logic.Config
	now        func() time.Time
}

func (l *loop) runLoop(tick <-chan time.Time, events <-chan logic.ButtonEvent, sig <-chan os.Signal) error {
	for {
		// A pending signal wins over a ready tick or button event.
		select {
		case s := <-sig:
			logger.Info().Str("signal", s.String()).Msg("shutting down")
			l.shutdown(signalName(s))
			return nil
		default:
		}

		select {
		case s := <-sig:
			logger.Info().Str("signal", s.String()).Msg("shutting down")
			l.shutdown(signalName(s))
			return nil

		case <-tick:
			l.step()

		case ev := <-events:
			l.handleButton(ev)
		}
	}
}

// step runs one control iteration.
func (l *loop) step() {
	now := l.now()
	r := logic.Reading{Temperature: sensor.ReadTemperature(l.sampler), Time: now}
	if f, err := l.sampler.Frequency(); err != nil {
		if l.thresholds.Preempt {
			logger.Warn().Err(err).Msg("unable to read CPU frequency, skipping preemptive check")
		}
	} else {
		r.Frequency = f
		r.FrequencyValid = true
	}

	if err := l.publisher.PublishTemperature(r.Temperature); err != nil {
		logger.Warn().Err(err).Msg("publish temperature")
	}

	intent := l.ctrl.Decide(r)
	if err := l.publisher.PublishActive(intent); err != nil {
		logger.Warn().Err(err).Msg("publish active")
	}

	changed, err := l.ctrl.SetFan(intent, now)
	if err != nil {
		logger.Error().Err(err).Bool("on", intent).Msg("fan switch failed")
	}
	st := l.ctrl.State()
	if changed {
		logger.Info().Bool("on", st.Enabled).Float64("temp", r.Temperature).Msg("fan switched")
		l.record(history.KindFan, st, now)
	}

	if err := l.leds.ShowTemperature(r.Temperature); err != nil {
		logger.Warn().Err(err).Msg("led update failed")
	}

	target := l.thresholds.OnThreshold
	if st.Enabled {
		target = l.thresholds.OffThreshold
	}
	logger.Debug().
		Float64("temp", r.Temperature).
		Float64("target", target).
		Float64("freq", r.Frequency.Current).
		Bool("automatic", st.Armed).
		Bool("on", st.Enabled).
		Msg("tick")

	l.tracker.SetReading(r)
	l.refresh(st)
}

func (l *loop) handleButton(ev logic.ButtonEvent) {
	action, err := l.input.Handle(ev)
	if err != nil {
		logger.Error().Err(err).Msg("button action failed")
		return
	}
	st := l.ctrl.State()
	switch action {
	case logic.ReleaseToggledMode:
		l.record(history.KindMode, st, l.now())
	case logic.ReleaseToggledFan:
		l.record(history.KindFan, st, l.now())
	}
	l.refresh(st)
}

func (l *loop) record(kind history.Kind, st logic.State, at time.Time) {
	err := l.history.Record(history.Entry{
		Time:        at,
		Kind:        kind,
		Armed:       st.Armed,
		Enabled:     st.Enabled,
		Temperature: st.Temperature,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("history record failed")
	}
}

func (l *loop) refresh(st logic.State) {
	l.tracker.Update(st)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// shutdown leaves the hardware dark: fan off, pending blink finished, LED
// off, then the SHUTDOWN event.
func (l *loop) shutdown(reason string) {
	now := l.now()
	if changed, err := l.ctrl.SetFan(false, now); err != nil {
		logger.Error().Err(err).Msg("fan off failed")
	} else if changed {
		l.record(history.KindFan, l.ctrl.State(), now)
	}

	l.input.Wait()
	if err := l.leds.Off(); err != nil {
		logger.Warn().Err(err).Msg("led off failed")
	}

	l.refresh(l.ctrl.State())
	snap := l.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  now,
		Event:      mqtt.EventShutdown,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventShutdown, reason),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		logger.Warn().Err(err).Msg("failed to publish shutdown event")
	} else {
		logger.Info().Msg("published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
