// Package credentials supplies the authentication headers added to every endpoint request.
// Headers are kept in a store: a JSON file in the workspace by default, or a Redis hash, a
// Consul key, or a DynamoDB item.
package credentials

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/apitaf/apitaf/framework"
)

// Store reads and writes a set of authentication headers.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, headers map[string]string) error
	// Location describes the store for log messages.
	Location() string
}

// Provider loads headers from a store once and returns copies of them on every call. It
// implements request.AuthSource.
type Provider struct {
	store   Store
	logger  framework.Logger
	once    sync.Once
	headers map[string]string
	err     error
}

func NewProvider(store Store, logger framework.Logger) *Provider {
	return &Provider{store: store, logger: framework.OrNull(logger)}
}

func (p *Provider) AuthHeaders(ctx context.Context) (map[string]string, error) {
	p.once.Do(func() {
		p.logger.Printf("Loading credentials from %s", p.store.Location())
		p.headers, p.err = p.store.Load(ctx)
	})
	if p.err != nil {
		return nil, p.err
	}
	ret := make(map[string]string, len(p.headers))
	for k, v := range p.headers {
		ret[k] = v
	}
	return ret, nil
}

// BasicAuthHeaders returns an Authorization header for HTTP basic authentication.
func BasicAuthHeaders(user, password string) map[string]string {
	token := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
	return map[string]string{"Authorization": "Basic " + token}
}

// StaticStore is an in-memory store.
type StaticStore struct {
	lock    sync.Mutex
	headers map[string]string
}

func NewStaticStore(headers map[string]string) *StaticStore {
	s := &StaticStore{}
	_ = s.Save(context.Background(), headers)
	return s
}

func (s *StaticStore) Load(context.Context) (map[string]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return copyHeaders(s.headers), nil
}

func (s *StaticStore) Save(_ context.Context, headers map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.headers = copyHeaders(headers)
	return nil
}

func (s *StaticStore) Location() string { return "static" }

func copyHeaders(h map[string]string) map[string]string {
	ret := make(map[string]string, len(h))
	for k, v := range h {
		ret[k] = v
	}
	return ret
}
