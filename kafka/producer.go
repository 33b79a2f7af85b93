package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/apitaf/apitaf/framework"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"
)

// Message is one message to send. An empty Key is replaced by a random UUID string.
type Message struct {
	Topic        string
	KeySubject   string
	ValueSubject string
	Key          string
	Value        string
}

// Delivery reports where a message was written.
type Delivery struct {
	Topic     string
	Key       string
	Partition int32
	Offset    int64
}

func (d Delivery) String() string {
	return fmt.Sprintf("message %s produced to topic:%s, partition:[%d] at offset %d",
		d.Key, d.Topic, d.Partition, d.Offset)
}

// Kerberos holds the GSSAPI settings used on the secured clusters. The service name and principal
// may contain "{ENV}", which is replaced by the environment.
type Kerberos struct {
	ServiceName        string
	Principal          string
	Realm              string
	KeyTabPath         string
	KerberosConfigPath string
}

// DefaultKerberos returns the per-environment names used by the client clusters.
func DefaultKerberos() Kerberos {
	return Kerberos{
		ServiceName:        "kafka_{ENV}_clt1",
		Principal:          "kaf_ca_pdt_{ENV}@apitaf.example.com",
		KerberosConfigPath: "/etc/krb5.conf",
	}
}

// ProducerConfig builds the sarama configuration for a synchronous producer. If kerberos is nil
// the connection is plaintext.
func ProducerConfig(environment string, kerberos *Kerberos) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "taf-util"
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	if kerberos != nil {
		expand := func(s string) string { return strings.ReplaceAll(s, "{ENV}", environment) }
		principal := expand(kerberos.Principal)
		realm := kerberos.Realm
		if user, r, ok := strings.Cut(principal, "@"); ok {
			principal = user
			if realm == "" {
				realm = strings.ToUpper(r)
			}
		}
		cfg.Net.TLS.Enable = true
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.Mechanism = sarama.SASLTypeGSSAPI
		cfg.Net.SASL.GSSAPI = sarama.GSSAPIConfig{
			AuthType:           sarama.KRB5_KEYTAB_AUTH,
			KeyTabPath:         kerberos.KeyTabPath,
			KerberosConfigPath: kerberos.KerberosConfigPath,
			ServiceName:        expand(kerberos.ServiceName),
			Username:           principal,
			Realm:              realm,
		}
		if kerberos.KeyTabPath == "" {
			cfg.Net.SASL.GSSAPI.AuthType = sarama.KRB5_USER_AUTH
		}
	}
	return cfg
}

// Producer encodes messages with registry schemas and sends them synchronously.
type Producer struct {
	registry *SchemaRegistry
	producer sarama.SyncProducer
	logger   framework.Logger
}

// NewProducer wraps an existing sarama producer. The Producer takes ownership of it.
func NewProducer(registry *SchemaRegistry, producer sarama.SyncProducer, logger framework.Logger) *Producer {
	return &Producer{registry: registry, producer: producer, logger: framework.OrNull(logger)}
}

// Dial connects to the brokers, a comma-separated list.
func Dial(brokers string, registry *SchemaRegistry, cfg *sarama.Config, logger framework.Logger) (*Producer, error) {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil, errors.New("no bootstrap servers given")
	}
	p, err := sarama.NewSyncProducer(addrs, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", brokers, err)
	}
	return NewProducer(registry, p, logger), nil
}

// Send encodes the key and value with the latest schemas of their subjects and produces the
// message.
func (p *Producer) Send(ctx context.Context, m Message) (Delivery, error) {
	keySchema, err := p.registry.Latest(ctx, m.KeySubject)
	if err != nil {
		return Delivery{}, err
	}
	valueSchema, err := p.registry.Latest(ctx, m.ValueSubject)
	if err != nil {
		return Delivery{}, err
	}

	keyText := m.Key
	if keyText == "" {
		s, _ := json.Marshal(uuid.NewString())
		keyText = string(s)
	}
	key, err := Encode(keySchema, []byte(keyText))
	if err != nil {
		return Delivery{}, err
	}
	value, err := Encode(valueSchema, []byte(m.Value))
	if err != nil {
		return Delivery{}, err
	}

	p.logger.Printf("Producing message with key %s to topic %s", keyText, m.Topic)
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: m.Topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return Delivery{}, fmt.Errorf("delivery failed for message %s: %w", keyText, err)
	}
	return Delivery{Topic: m.Topic, Key: keyText, Partition: partition, Offset: offset}, nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
