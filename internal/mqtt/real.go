package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/sweeney/fanshim-mqtt/internal/logger"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Options configures the broker connection.
type Options struct {
	Host      string
	Port      int
	User      string
	Password  string
	KeepAlive time.Duration

	// BufferSize bounds the offline queue; zero means DefaultBufferSize.
	BufferSize int
}

// Broker returns the broker URL.
func (o Options) Broker() string {
	return fmt.Sprintf("tcp://%s:%d", o.Host, o.Port)
}

// RealPublisher publishes to an actual MQTT broker. Publishes made while the
// connection is down are queued and replayed in order on reconnect.
type RealPublisher struct {
	client paho.Client

	// mu orders queueing, replay and live publishes.
	mu     sync.Mutex
	buffer *ringBuffer
}

// ClientID returns a fresh client identifier of the form fanshim-xxxxxxxx.
func ClientID() string {
	return "fanshim-" + uuid.NewString()[:8]
}

// NewRealPublisher connects to the broker. The initial connection is not
// retried; a failure here is fatal to the caller.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	p := newPublisher(o.BufferSize)

	opts := paho.NewClientOptions().
		AddBroker(o.Broker()).
		SetClientID(ClientID()).
		SetKeepAlive(o.KeepAlive).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn().Err(err).Msg("mqtt connection lost")
		})
	if o.User != "" {
		opts.SetUsername(o.User)
		opts.SetPassword(o.Password)
	}

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout", o.Broker())
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", o.Broker(), err)
	}

	return p, nil
}

func newPublisher(bufferSize int) *RealPublisher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &RealPublisher{buffer: newRingBuffer(bufferSize)}
}

// onConnect replays queued messages. paho runs it on its own goroutine for
// the first connection and every reconnection.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buffer.drainAll()
	tokens := make([]paho.Token, 0, len(pending))
	for _, m := range pending {
		tokens = append(tokens, c.Publish(m.topic, m.qos, m.retained, m.payload))
	}
	p.mu.Unlock()

	if len(pending) > 0 {
		logger.Info().Int("messages", len(pending)).Msg("mqtt connected, replaying buffered messages")
	} else {
		logger.Debug().Msg("mqtt connected")
	}
	for _, t := range tokens {
		if t.WaitTimeout(publishTimeout) && t.Error() != nil {
			logger.Warn().Err(t.Error()).Msg("mqtt replay failed")
		}
	}
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		logger.Debug().Str("topic", topic).Msg("mqtt offline, message buffered")
		return nil
	}
	token := p.client.Publish(topic, qos, retained, payload)
	p.mu.Unlock()

	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// PublishTemperature sends celsius to TopicTemperature (QoS 0, not retained).
func (p *RealPublisher) PublishTemperature(celsius float64) error {
	return p.publish(TopicTemperature, 0, false, FormatTemperature(celsius))
}

// PublishActive sends the fan intent to TopicActive (QoS 0, not retained).
func (p *RealPublisher) PublishActive(active bool) error {
	return p.publish(TopicActive, 0, false, FormatActive(active))
}

// PublishSystem sends a system lifecycle event. QoS 1 so shutdown
// notifications are delivered.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of queued messages.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}
