// Package notify publishes matching lifecycle notifications over MQTT so
// downstream consumers (mail pipeline, admin UI) can react without polling.
package notify

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/dinehop/dinehop/core/model"
	corenotify "github.com/dinehop/dinehop/core/notify"
	"github.com/dinehop/dinehop/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT publisher.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	UseTLS      bool   `json:"use_tls"`
	ClientCert  string `json:"client_cert"`
	ClientKey   string `json:"client_key"`
	CABundle    string `json:"ca_bundle"`
	MaxRetries  int    `json:"max_retries"`
	BackoffMS   int    `json:"backoff_ms"`
}

func (c Config) prefix() string {
	if c.TopicPrefix != "" {
		return c.TopicPrefix
	}
	return "dinehop"
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.CABundle != "" {
		ca, err := os.ReadFile(c.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("parse ca bundle %s", c.CABundle)
		}
		tlsCfg.RootCAs = pool
	}
	if c.ClientCert != "" && c.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTPublisher implements notify.Publisher using Eclipse Paho.
type MQTTPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewMQTTPublisher connects to the broker and returns a ready publisher.
func NewMQTTPublisher(cfg Config) (*MQTTPublisher, error) {
	log := logger.New("notify_mqtt")

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "dinehop-" + uuid.NewString()[:8]
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(clientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected") }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) { log.Warnf("reconnecting to MQTT broker") }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &MQTTPublisher{
		cli:        c,
		prefix:     cfg.prefix(),
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}, nil
}

// PublishJobEvent emits the job document on its lifecycle topic.
func (p *MQTTPublisher) PublishJobEvent(job model.MatchingJob) error {
	topic := fmt.Sprintf("%s/events/%s/jobs/%s", p.prefix, job.EventID, string(job.Status))
	return p.publish(topic, job)
}

// PublishProposalFinalized announces a finalized proposal version.
func (p *MQTTPublisher) PublishProposalFinalized(eventID string, version int) error {
	topic := fmt.Sprintf("%s/events/%s/proposals/finalized", p.prefix, eventID)
	return p.publish(topic, map[string]any{"event_id": eventID, "version": version})
}

// PublishProposalUnreleased announces that a finalized version was reopened.
func (p *MQTTPublisher) PublishProposalUnreleased(eventID string, version int) error {
	topic := fmt.Sprintf("%s/events/%s/proposals/unreleased", p.prefix, eventID)
	return p.publish(topic, map[string]any{"event_id": eventID, "version": version})
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.cli.Disconnect(250)
	return nil
}

func (p *MQTTPublisher) publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	attempts := p.maxRetries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		token := p.cli.Publish(topic, p.qos, false, body)
		if token.Wait() && token.Error() == nil {
			return nil
		}
		lastErr = token.Error()
		p.log.Warnf("publish %s attempt %d: %v", topic, i+1, lastErr)
		if p.backoff > 0 {
			time.Sleep(p.backoff)
		}
	}
	return lastErr
}

var _ corenotify.Publisher = (*MQTTPublisher)(nil)
