package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	keySchema   = `"string"`
	valueSchema = `{
		"type": "record", "name": "Subscription",
		"fields": [
			{"name": "version", "type": "int"},
			{"name": "clientAccountId", "type": "string"}
		]
	}`
)

func registryHandler() http.Handler {
	schemas := map[string]struct {
		id     int
		schema string
	}{
		"sub-key":   {id: 7, schema: keySchema},
		"sub-value": {id: 8, schema: valueSchema},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/subjects/"), "/versions/latest")
		s, ok := schemas[subject]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error_code":40401,"message":"Subject not found."}`))
			return
		}
		body, _ := json.Marshal(map[string]interface{}{"subject": subject, "id": s.id, "version": 3, "schema": s.schema})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}

func withRegistry(t *testing.T, action func(r *SchemaRegistry, requests <-chan httphelpers.HTTPRequestInfo)) {
	handler, requests := httphelpers.RecordingHandler(registryHandler())
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		action(NewSchemaRegistry(server.URL+"/", nil), requests)
	})
}

func TestLatestSchema(t *testing.T) {
	withRegistry(t, func(r *SchemaRegistry, requests <-chan httphelpers.HTTPRequestInfo) {
		s, err := r.Latest(context.Background(), "sub-value")
		require.NoError(t, err)
		assert.Equal(t, 8, s.ID)
		assert.Equal(t, 3, s.Version)
		assert.Equal(t, "sub-value", s.Subject)

		req := <-requests
		assert.Equal(t, "/subjects/sub-value/versions/latest", req.Request.URL.Path)
	})
}

func TestLatestSchemaNotFound(t *testing.T) {
	withRegistry(t, func(r *SchemaRegistry, _ <-chan httphelpers.HTTPRequestInfo) {
		_, err := r.Latest(context.Background(), "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})
}

func TestEncodeUsesRegistryFraming(t *testing.T) {
	withRegistry(t, func(r *SchemaRegistry, _ <-chan httphelpers.HTTPRequestInfo) {
		s, err := r.Latest(context.Background(), "sub-value")
		require.NoError(t, err)

		framed, err := Encode(s, []byte(`{"version": 105, "clientAccountId": "00H2A1"}`))
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 0, 0, 0, 8}, framed[:5])

		id, textual, err := Decode(s, framed)
		require.NoError(t, err)
		assert.Equal(t, 8, id)
		assert.JSONEq(t, `{"version": 105, "clientAccountId": "00H2A1"}`, string(textual))

		_, err = Encode(s, []byte(`{"version": "not a number"}`))
		assert.Error(t, err)
	})
}

func TestProducerSendsEncodedMessage(t *testing.T) {
	withRegistry(t, func(r *SchemaRegistry, _ <-chan httphelpers.HTTPRequestInfo) {
		valueSchema, err := r.Latest(context.Background(), "sub-value")
		require.NoError(t, err)

		mock := mocks.NewSyncProducer(t, ProducerConfig("dev", nil))
		mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			_, textual, err := Decode(valueSchema, val)
			if err != nil {
				return err
			}
			if !strings.Contains(string(textual), `"00H2A1"`) {
				return errors.New("unexpected value " + string(textual))
			}
			return nil
		})
		p := NewProducer(r, mock, nil)
		defer p.Close() //nolint:errcheck

		d, err := p.Send(context.Background(), Message{
			Topic:        "subscriptions",
			KeySubject:   "sub-key",
			ValueSubject: "sub-value",
			Value:        `{"version": 105, "clientAccountId": "00H2A1"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, "subscriptions", d.Topic)
		assert.NotEmpty(t, d.Key, "a random key is generated")
	})
}

func TestProducerReportsDeliveryFailure(t *testing.T) {
	withRegistry(t, func(r *SchemaRegistry, _ <-chan httphelpers.HTTPRequestInfo) {
		mock := mocks.NewSyncProducer(t, ProducerConfig("dev", nil))
		mock.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)
		p := NewProducer(r, mock, nil)
		defer p.Close() //nolint:errcheck

		_, err := p.Send(context.Background(), Message{
			Topic: "subscriptions", KeySubject: "sub-key", ValueSubject: "sub-value",
			Key: `"K1"`, Value: `{"version": 1, "clientAccountId": "A"}`,
		})
		require.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
		assert.Contains(t, err.Error(), `"K1"`)
	})
}

func TestProducerConfigKerberos(t *testing.T) {
	k := DefaultKerberos()
	k.KeyTabPath = "/etc/taf.keytab"
	cfg := ProducerConfig("qa", &k)

	assert.True(t, cfg.Net.SASL.Enable)
	assert.True(t, cfg.Net.TLS.Enable)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypeGSSAPI), cfg.Net.SASL.Mechanism)
	assert.Equal(t, "kafka_qa_clt1", cfg.Net.SASL.GSSAPI.ServiceName)
	assert.Equal(t, "kaf_ca_pdt_qa", cfg.Net.SASL.GSSAPI.Username)
	assert.Equal(t, "APITAF.EXAMPLE.COM", cfg.Net.SASL.GSSAPI.Realm)
	assert.Equal(t, sarama.KRB5_KEYTAB_AUTH, cfg.Net.SASL.GSSAPI.AuthType)

	plain := ProducerConfig("qa", nil)
	assert.False(t, plain.Net.SASL.Enable)
	assert.True(t, plain.Producer.Return.Successes)
}
