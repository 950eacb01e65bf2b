package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/alpha2-bridge/internal/command"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// Publisher is the part of *mqtt.Client the publishers need.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// StatePublisher publishes one retained message per heat area and IO
// device after each commit. Unchanged entries are not republished, and
// the topic of a deleted IO device is cleared with an empty retained
// message.
type StatePublisher struct {
	pub    Publisher
	topics mqtt.Topics
	qos    byte
	logger Logger

	mu   sync.Mutex
	last map[string][]byte // topic -> last payload
}

// NewStatePublisher creates a publisher writing under topics.
func NewStatePublisher(pub Publisher, topics mqtt.Topics, qos byte) *StatePublisher {
	return &StatePublisher{
		pub:    pub,
		topics: topics,
		qos:    qos,
		logger: noopLogger{},
		last:   make(map[string][]byte),
	}
}

// SetLogger sets the logger.
func (p *StatePublisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Commit is a state.CommitFunc.
func (p *StatePublisher) Commit(_ context.Context, dev *state.Device) {
	messages := make(map[string][]byte, len(dev.HeatAreas)+len(dev.IODevices))
	for _, e := range dev.HeatAreas {
		p.encode(messages, p.topics.HeatAreaState(e.Nr), e)
	}
	for _, e := range dev.IODevices {
		id, ok := e.Int(state.FieldIODeviceID)
		if !ok {
			continue
		}
		p.encode(messages, p.topics.IODeviceState(id), e)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for topic, payload := range messages {
		if bytes.Equal(p.last[topic], payload) {
			continue
		}
		if err := p.pub.Publish(topic, payload, p.qos, true); err != nil {
			p.logger.Warn("failed to publish state", "topic", topic, "error", err)
			continue
		}
		p.last[topic] = payload
	}

	for topic := range p.last {
		if _, ok := messages[topic]; ok {
			continue
		}
		if err := p.pub.Publish(topic, nil, p.qos, true); err != nil {
			p.logger.Warn("failed to clear state topic", "topic", topic, "error", err)
			continue
		}
		delete(p.last, topic)
	}
}

func (p *StatePublisher) encode(into map[string][]byte, topic string, e *state.Entry) {
	payload, err := json.Marshal(entryPayload(e))
	if err != nil {
		p.logger.Error("failed to encode state", "topic", topic, "error", err)
		return
	}
	into[topic] = payload
}

// Reset forgets what was published, so the next commit republishes every
// topic. Called after a reconnect to a broker that may have lost its
// retained messages.
func (p *StatePublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = make(map[string][]byte)
}

// DiagnosticsPublisher sends command diagnostics to the diagnostics topic.
type DiagnosticsPublisher struct {
	pub    Publisher
	topic  string
	qos    byte
	logger Logger
	now    func() time.Time
}

// NewDiagnosticsPublisher creates a diagnostics sink on topics.Diagnostics().
func NewDiagnosticsPublisher(pub Publisher, topics mqtt.Topics, qos byte) *DiagnosticsPublisher {
	return &DiagnosticsPublisher{
		pub:    pub,
		topic:  topics.Diagnostics(),
		qos:    qos,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger.
func (d *DiagnosticsPublisher) SetLogger(logger Logger) {
	d.logger = logger
}

// Report implements command.Diagnostics.
func (d *DiagnosticsPublisher) Report(_ context.Context, err error) {
	payload, encErr := json.Marshal(newDiagnostic(err, d.now()))
	if encErr != nil {
		d.logger.Error("failed to encode diagnostic", "error", encErr)
		return
	}
	if pubErr := d.pub.Publish(d.topic, payload, d.qos, false); pubErr != nil {
		d.logger.Warn("failed to publish diagnostic", "error", pubErr)
	}
}

// Subscriber is the part of *mqtt.Client the command listener needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// CommandListener applies XML command documents received on the command
// topic, exactly as POST /data/changes.xml would.
type CommandListener struct {
	processor *command.Processor
	logger    Logger
}

// NewCommandListener creates a listener feeding processor.
func NewCommandListener(processor *command.Processor) *CommandListener {
	return &CommandListener{processor: processor, logger: noopLogger{}}
}

// SetLogger sets the logger.
func (l *CommandListener) SetLogger(logger Logger) {
	l.logger = logger
}

// Subscribe registers the listener on topics.Command().
func (l *CommandListener) Subscribe(sub Subscriber, topics mqtt.Topics, qos byte) error {
	return sub.Subscribe(topics.Command(), qos, l.Handle)
}

// Handle is the mqtt.MessageHandler for the command topic. Rejected
// documents are logged; MQTT has no response channel.
func (l *CommandListener) Handle(topic string, payload []byte) error {
	res, err := l.processor.Process(context.Background(), command.SourceMQTT, payload)
	if err != nil {
		l.logger.Warn("mqtt command rejected", "topic", topic, "error", err)
		return err
	}
	if !res.OK() {
		l.logger.Warn("mqtt command partially applied",
			"topic", topic,
			"applied", len(res.Changes),
			"error", res.Err(),
		)
		return res.Err()
	}

	l.logger.Debug("mqtt command applied", "topic", topic, "applied", len(res.Changes))
	return nil
}
