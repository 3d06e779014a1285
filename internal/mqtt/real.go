package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Options configures the broker connection.
type Options struct {
	Broker         string
	ClientID       string // empty: pelarboj-<uuid>
	Username       string
	Password       string
	BufferSize     int
	ConnectRetry   time.Duration
	PublishTimeout time.Duration
}

// Client is the real coordinator link. It connects in the background and
// keeps retrying, so the controller can run before the broker is reachable.
type Client struct {
	client  paho.Client
	timeout time.Duration

	mu        sync.Mutex
	buf       *ringBuffer
	handler   Handler
	connected bool
	everUp    bool
	// session changes on every connect and loss; a replay from an older
	// session stops.
	session uint64
}

// NewClient prepares a client. Nothing is sent until Start.
func NewClient(o Options) *Client {
	if o.ClientID == "" {
		o.ClientID = "pelarboj-" + uuid.NewString()
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 64
	}
	if o.ConnectRetry <= 0 {
		o.ConnectRetry = 5 * time.Second
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 5 * time.Second
	}

	c := &Client{
		timeout: o.PublishTimeout,
		buf:     newRingBuffer(o.BufferSize),
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(o.ConnectRetry).
		SetCleanSession(true).
		SetWill(TopicSystem, string(willPayload()), 1, true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)
	if o.Username != "" {
		opts.SetUsername(o.Username).SetPassword(o.Password)
	}
	c.client = paho.NewClient(opts)
	return c
}

// Start registers the command handler and begins connecting.
func (c *Client) Start(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
	// With ConnectRetry the token only completes once connected; don't wait.
	c.client.Connect()
}

func (c *Client) onConnect(pc paho.Client) {
	c.mu.Lock()
	reconnect := c.everUp
	c.everUp = true
	c.session++
	session := c.session
	c.mu.Unlock()

	log.Info().Bool("reconnect", reconnect).Msg("MQTT connected")

	subs := map[string]byte{TopicSet: 1, TopicIdentify: 0}
	token := pc.SubscribeMultiple(subs, c.onMessage)
	if !token.WaitTimeout(c.timeout) {
		log.Error().Dur("timeout", c.timeout).Msg("MQTT subscribe timed out")
	} else if err := token.Error(); err != nil {
		log.Error().Err(err).Msg("MQTT subscribe failed")
	}

	if reconnect {
		// Buffered like everything else until replay finishes.
		if err := c.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: EventReconnected}); err != nil {
			log.Warn().Err(err).Msg("Failed to publish reconnect event")
		}
	}

	c.replay(session)
}

// replay sends buffered messages oldest first. Publishes keep landing in the
// buffer until it is empty, so a newer message never overtakes an older one.
func (c *Client) replay(session uint64) {
	replayed := 0
	for {
		c.mu.Lock()
		if c.session != session {
			c.mu.Unlock()
			return
		}
		pending := c.buf.drainAll()
		if len(pending) == 0 {
			c.connected = true
			c.mu.Unlock()
			break
		}
		c.mu.Unlock()

		for _, m := range pending {
			if err := c.send(m); err != nil {
				log.Warn().Err(err).Str("topic", m.topic).Msg("Failed to replay buffered message")
			}
		}
		replayed += len(pending)
	}
	if replayed > 0 {
		log.Info().Int("count", replayed).Msg("Replayed buffered MQTT messages")
	}
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	c.mu.Lock()
	c.connected = false
	c.session++
	c.mu.Unlock()
	log.Warn().Err(err).Msg("MQTT connection lost")
}

func (c *Client) onMessage(_ paho.Client, m paho.Message) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h == nil {
		return
	}
	dispatch(h, m.Topic(), m.Payload())
}

// dispatch decodes an inbound message and hands it to the handler. Bad
// payloads are logged and ignored.
func dispatch(h Handler, topic string, payload []byte) {
	switch topic {
	case TopicSet:
		cmd, err := ParseCommand(payload)
		if err != nil {
			log.Warn().Err(err).Bytes("payload", payload).Msg("Ignoring bad set command")
			return
		}
		h.HandleCommand(cmd)
	case TopicIdentify:
		id, err := ParseIdentify(payload)
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring bad identify command")
			return
		}
		h.HandleIdentify(id)
	default:
		log.Debug().Str("topic", topic).Msg("Ignoring message on unexpected topic")
	}
}

// IsConnected reports whether the broker connection is up and the offline
// buffer has been replayed.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Buffered returns the number of messages waiting for a connection.
func (c *Client) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.len()
}

// PublishState publishes the retained attribute model.
func (c *Client) PublishState(attrs Attributes) error {
	payload, err := FormatState(attrs)
	if err != nil {
		return fmt.Errorf("format state: %w", err)
	}
	return c.publish(bufferedMsg{topic: TopicState, payload: payload, qos: 1, retained: true})
}

// PublishSystem sends a system lifecycle event.
func (c *Client) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return c.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (c *Client) publish(m bufferedMsg) error {
	c.mu.Lock()
	if !c.connected {
		c.buf.push(m)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.send(m)
}

func (c *Client) send(m bufferedMsg) error {
	token := c.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(c.timeout) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// FactoryReset clears the retained attribute model, announces the reset
// and leaves the broker. The client is unusable afterwards.
func (c *Client) FactoryReset() error {
	var errs []error
	if c.IsConnected() {
		// An empty retained payload deletes the retained message.
		if err := c.send(bufferedMsg{topic: TopicState, payload: []byte{}, qos: 1, retained: true}); err != nil {
			errs = append(errs, fmt.Errorf("clear retained state: %w", err))
		}
		ev := SystemEvent{Timestamp: time.Now(), Event: EventFactoryReset, Retained: true}
		if err := c.PublishSystem(ev); err != nil {
			errs = append(errs, err)
		}
	} else {
		errs = append(errs, errors.New("not connected; retained state left on broker"))
	}
	c.mu.Lock()
	c.buf.drainAll()
	c.connected = false
	c.mu.Unlock()
	c.client.Disconnect(250)
	return errors.Join(errs...)
}

// Close disconnects from the broker.
func (c *Client) Close() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.client.Disconnect(1000)
	return nil
}
