// Package relay republishes robot-frame points received over MQTT as
// reference-frame points (or vice versa), using a loaded transform.Engine
// to do the conversion. It is built the way the teacher's MQTTClient and
// Publisher are: a subscriber with reconnect/backoff wired through
// eclipse/paho.mqtt.golang, and a small publisher that marshals JSON
// payloads to an output topic.
package relay

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kwv/maptransform/transform"
)

// Direction selects which of the engine's two queries a Relay applies to
// incoming points.
type Direction int

const (
	ToRef Direction = iota
	ToRobot
)

// PointMessage is the wire shape of both the subscribed and published
// payloads: a bare coordinate pair plus an optional passthrough label, in
// the same spirit as mesh.VacuumPosition's flat JSON record.
type PointMessage struct {
	Label string  `json:"label,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Config holds the broker and topic settings for a Relay, mirroring the
// fields mesh.InitMQTT reads off mesh.Config.MQTT plus an output topic in
// the style of mesh.Publisher.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	InputTopic  string
	OutputTopic string
	QoS         byte
	Retain      bool
	Direction   Direction
}

// Relay subscribes to InputTopic, transforms each point through Engine
// per Direction, and publishes the result to OutputTopic.
type Relay struct {
	client mqtt.Client
	cfg    Config
	engine *transform.Engine

	mu          sync.RWMutex
	connected   bool
	lastMessage *PointMessage
}

// New constructs a Relay bound to engine, which must already be loaded.
// newClient lets tests substitute a mock mqtt.Client; pass nil to build a
// real one from cfg via mqtt.NewClient.
func New(cfg Config, engine *transform.Engine, newClient func(*mqtt.ClientOptions) mqtt.Client) (*Relay, error) {
	if !engine.Loaded() {
		return nil, fmt.Errorf("relay: engine must be loaded before use")
	}
	if cfg.InputTopic == "" || cfg.OutputTopic == "" {
		return nil, fmt.Errorf("relay: input and output topics are required")
	}

	r := &Relay{cfg: cfg, engine: engine}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "maptransform-relay"
	}
	opts.SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(r.onConnect)
	opts.SetConnectionLostHandler(r.onConnectionLost)

	if newClient != nil {
		r.client = newClient(opts)
	} else {
		r.client = mqtt.NewClient(opts)
	}

	return r, nil
}

// Start connects to the broker with exponential backoff, the same shape
// as mesh.MQTTClient.connectWithRetry, and returns once connected.
func (r *Relay) Start() error {
	retryDelay := 1 * time.Second
	const maxRetryDelay = 60 * time.Second

	for {
		token := r.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				return nil
			}
			log.Printf("relay: connection failed: %v", token.Error())
		} else {
			log.Printf("relay: connection timeout")
		}

		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// Stop disconnects from the broker.
func (r *Relay) Stop() {
	if r.client != nil && r.client.IsConnected() {
		r.client.Disconnect(250)
	}
	r.setConnected(false)
}

func (r *Relay) onConnect(client mqtt.Client) {
	r.setConnected(true)
	token := client.Subscribe(r.cfg.InputTopic, r.cfg.QoS, r.handleMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("relay: subscribe to %s failed: %v", r.cfg.InputTopic, token.Error())
	}
}

func (r *Relay) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("relay: connection lost: %v", err)
	r.setConnected(false)
}

func (r *Relay) handleMessage(client mqtt.Client, msg mqtt.Message) {
	var in PointMessage
	if err := json.Unmarshal(msg.Payload(), &in); err != nil {
		log.Printf("relay: malformed point payload on %s: %v", msg.Topic(), err)
		return
	}

	var out transform.Point
	var err error
	switch r.cfg.Direction {
	case ToRef:
		out, err = r.engine.ToRef(transform.Point{X: in.X, Y: in.Y})
	case ToRobot:
		out, err = r.engine.ToRobot(transform.Point{X: in.X, Y: in.Y})
	}
	if err != nil {
		log.Printf("relay: transform failed: %v", err)
		return
	}

	result := PointMessage{Label: in.Label, X: out.X, Y: out.Y}
	r.mu.Lock()
	r.lastMessage = &result
	r.mu.Unlock()

	payload, err := json.Marshal(result)
	if err != nil {
		log.Printf("relay: marshaling result: %v", err)
		return
	}

	token := client.Publish(r.cfg.OutputTopic, r.cfg.QoS, r.cfg.Retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		log.Printf("relay: publish to %s failed: %v", r.cfg.OutputTopic, token.Error())
	}
}

// LastMessage returns the most recently published point, if any.
func (r *Relay) LastMessage() (PointMessage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastMessage == nil {
		return PointMessage{}, false
	}
	return *r.lastMessage, true
}

// IsConnected reports whether the relay currently holds a live broker
// connection.
func (r *Relay) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

func (r *Relay) setConnected(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = v
}
