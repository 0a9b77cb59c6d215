package mqtt

import "sync"

// Message is a single recorded publish.
type Message struct {
	Topic   string
	Payload []byte
}

// FakePublisher records published telemetry for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Messages lists every temperature and active publish in order.
	Messages []Message

	// Temperatures and Actives hold the values behind Messages.
	Temperatures []float64
	Actives      []bool

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, is returned by PublishTemperature and PublishActive.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

// PublishTemperature records celsius.
func (f *FakePublisher) PublishTemperature(celsius float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Temperatures = append(f.Temperatures, celsius)
	f.Messages = append(f.Messages, Message{Topic: TopicTemperature, Payload: FormatTemperature(celsius)})
	return nil
}

// PublishActive records the fan intent.
func (f *FakePublisher) PublishActive(active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Actives = append(f.Actives, active)
	f.Messages = append(f.Messages, Message{Topic: TopicActive, Payload: FormatActive(active)})
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// ActiveValues returns a copy of the recorded intents.
func (f *FakePublisher) ActiveValues() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.Actives...)
}

// TemperatureValues returns a copy of the recorded temperatures.
func (f *FakePublisher) TemperatureValues() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.Temperatures...)
}

// Reset clears all recorded state.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = nil
	f.Temperatures = nil
	f.Actives = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Closed = false
	f.Connected = true
}
