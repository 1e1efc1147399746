package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/mkv-git/openttd/core/metrics"
	"github.com/mkv-git/openttd/infra/logger"
)

// Publisher sends refreshed links to an MQTT broker, one message per link on
// <prefix>/<from>/<to>/<cargo>. It implements metrics.MetricsSink.
type Publisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

type linkPayload struct {
	SessionID string `json:"session_id"`
	VehicleID string `json:"vehicle_id"`
	From      uint16 `json:"from"`
	To        uint16 `json:"to"`
	Cargo     uint8  `json:"cargo"`
	Capacity  uint   `json:"capacity"`
	Mode      string `json:"mode"`
	Timestamp int64  `json:"timestamp"`
}

type sessionPayload struct {
	SessionID  string `json:"session_id"`
	VehicleID  string `json:"vehicle_id"`
	Hops       int    `json:"hops"`
	Updates    int    `json:"updates"`
	Branches   int    `json:"branches"`
	MergeSkips int    `json:"merge_skips"`
	DurationUS int64  `json:"duration_us"`
	Timestamp  int64  `json:"timestamp"`
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	return &Publisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}, nil
}

// LinkTopic returns the topic a link update is published on.
func (p *Publisher) LinkTopic(u coremetrics.LinkUpdate) string {
	return fmt.Sprintf("%s/%d/%d/%d", p.prefix, u.From, u.To, u.Cargo)
}

// PublishLinkUpdate sends one update, retrying with exponential backoff.
func (p *Publisher) PublishLinkUpdate(u coremetrics.LinkUpdate) error {
	payload, err := json.Marshal(linkPayload{
		SessionID: u.SessionID,
		VehicleID: u.VehicleID,
		From:      uint16(u.From),
		To:        uint16(u.To),
		Cargo:     uint8(u.Cargo),
		Capacity:  u.Capacity,
		Mode:      u.Mode.String(),
		Timestamp: u.Time.UnixMilli(),
	})
	if err != nil {
		return err
	}
	return p.publish(p.LinkTopic(u), payload)
}

// RecordLinkUpdates publishes every update and stops at the first failure.
func (p *Publisher) RecordLinkUpdates(updates []coremetrics.LinkUpdate) error {
	for _, u := range updates {
		if err := p.PublishLinkUpdate(u); err != nil {
			return err
		}
	}
	return nil
}

// RecordSession publishes a session summary on <prefix>/sessions/<vehicle>.
func (p *Publisher) RecordSession(ev coremetrics.SessionEvent) error {
	payload, err := json.Marshal(sessionPayload{
		SessionID:  ev.SessionID,
		VehicleID:  ev.VehicleID,
		Hops:       ev.Hops,
		Updates:    ev.Updates,
		Branches:   ev.Branches,
		MergeSkips: ev.MergeSkips,
		DurationUS: ev.Duration.Microseconds(),
		Timestamp:  ev.Time.UnixMilli(),
	})
	if err != nil {
		return err
	}
	return p.publish(fmt.Sprintf("%s/sessions/%s", p.prefix, ev.VehicleID), payload)
}

func (p *Publisher) publish(topic string, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.log.Errorf("publish to %s attempt %d failed: %v", topic, attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Close gracefully closes the MQTT connection.
func (p *Publisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}
