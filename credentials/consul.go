package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apitaf/apitaf/data"

	consul "github.com/hashicorp/consul/api"
)

// ConsulStore keeps headers as a JSON object under one Consul KV key.
type ConsulStore struct {
	consul *consul.Client
	key    string
}

func NewConsulStore(client *consul.Client, key string) *ConsulStore {
	return &ConsulStore{consul: client, key: key}
}

func (c *ConsulStore) Location() string { return "consul key " + c.key }

func (c *ConsulStore) Load(ctx context.Context) (map[string]string, error) {
	pair, _, err := c.consul.KV().Get(c.key, (&consul.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("consul get %s failed: %w", c.key, err)
	}
	if pair == nil {
		return nil, data.ConfigurationError{Path: c.Location(), Reason: missingCredentialsReason, Fatal: true}
	}
	var headers map[string]string
	if err := json.Unmarshal(pair.Value, &headers); err != nil {
		return nil, data.ConfigurationError{Path: c.Location(), Reason: "malformed credentials", Err: err, Fatal: true}
	}
	return headers, nil
}

func (c *ConsulStore) Save(ctx context.Context, headers map[string]string) error {
	raw, err := json.Marshal(headers)
	if err != nil {
		return err
	}
	_, err = c.consul.KV().Put(&consul.KVPair{Key: c.key, Value: raw}, (&consul.WriteOptions{}).WithContext(ctx))
	return err
}
