package relay

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"
)

// mockToken implements mqtt.Token for tests, adapted from the teacher's
// mesh.MockToken.
type mockToken struct {
	err error
}

func (t *mockToken) Wait() bool                     { return true }
func (t *mockToken) WaitTimeout(time.Duration) bool { return true }
func (t *mockToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (t *mockToken) Error() error                   { return t.err }

// MockClient implements mqtt.Client using testify/mock, adapted from the
// teacher's mesh.MockClient for the relay's narrower surface (Connect,
// Disconnect, IsConnected, Publish, Subscribe).
type MockClient struct {
	mock.Mock
	mu              sync.RWMutex
	connected       bool
	messageHandlers map[string]mqtt.MessageHandler
	published       []PublishedMessage
}

// PublishedMessage records one call to Publish for test assertions.
type PublishedMessage struct {
	Topic   string
	Payload []byte
}

// NewMockClient returns a MockClient wired with permissive default stubs,
// the same shape as mesh.NewMockClient.
func NewMockClient() *MockClient {
	m := &MockClient{
		messageHandlers: make(map[string]mqtt.MessageHandler),
		connected:       true,
	}
	m.On("IsConnected").Return(true).Maybe()
	m.On("Connect").Return(&mockToken{}).Maybe()
	m.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(&mockToken{}).Run(func(args mock.Arguments) {
		topic := args.String(0)
		handler := args.Get(2).(mqtt.MessageHandler)
		m.mu.Lock()
		m.messageHandlers[topic] = handler
		m.mu.Unlock()
	}).Maybe()
	m.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&mockToken{}).Maybe()
	m.On("Disconnect", mock.Anything).Return().Maybe()
	return m
}

func (m *MockClient) Connect() mqtt.Token {
	args := m.Called()
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	if t, ok := args.Get(0).(mqtt.Token); ok {
		return t
	}
	return &mockToken{}
}

func (m *MockClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
}

func (m *MockClient) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	args := m.Called(topic, qos, retained, payload)

	var bytes []byte
	switch v := payload.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	}
	m.mu.Lock()
	m.published = append(m.published, PublishedMessage{Topic: topic, Payload: bytes})
	m.mu.Unlock()

	if t, ok := args.Get(0).(mqtt.Token); ok {
		return t
	}
	return &mockToken{}
}

func (m *MockClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	args := m.Called(topic, qos, callback)
	if t, ok := args.Get(0).(mqtt.Token); ok {
		return t
	}
	return &mockToken{}
}

// SubscribeMultiple, Unsubscribe, AddRoute, IsConnectionOpen and
// OptionsReader round out mqtt.Client. The relay never calls them; they
// exist only so *MockClient satisfies the interface it's assigned to.
func (m *MockClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return &mockToken{}
}

func (m *MockClient) Unsubscribe(topics ...string) mqtt.Token {
	return &mockToken{}
}

func (m *MockClient) AddRoute(topic string, callback mqtt.MessageHandler) {}

func (m *MockClient) IsConnectionOpen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *MockClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// SimulateMessage invokes the handler registered for topic, as if the
// broker had delivered payload.
func (m *MockClient) SimulateMessage(topic string, payload []byte) {
	m.mu.RLock()
	handler, ok := m.messageHandlers[topic]
	m.mu.RUnlock()
	if ok && handler != nil {
		handler(m, &mockMessage{topic: topic, payload: payload})
	}
}

// Published returns every message recorded by Publish so far.
func (m *MockClient) Published() []PublishedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PublishedMessage, len(m.published))
	copy(out, m.published)
	return out
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool     { return false }
func (m *mockMessage) Qos() byte           { return 0 }
func (m *mockMessage) Retained() bool      { return false }
func (m *mockMessage) Topic() string       { return m.topic }
func (m *mockMessage) MessageID() uint16   { return 0 }
func (m *mockMessage) Payload() []byte     { return m.payload }
func (m *mockMessage) Ack()                {}
func (m *mockMessage) AutoAckOff()         {}
func (m *mockMessage) AutoAckOn()          {}
func (m *mockMessage) SetAutoAck(bool)     {}
func (m *mockMessage) SetRetained(bool)    {}
func (m *mockMessage) SetQoS(byte)         {}
func (m *mockMessage) SetDuplicate(bool)   {}
func (m *mockMessage) SetMessageID(uint16) {}
