// Package kafka produces Avro-encoded messages whose schemas come from a Confluent schema
// registry.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/linkedin/goavro/v2"
)

// Schema is a registered Avro schema.
type Schema struct {
	Subject string
	ID      int
	Version int
	Codec   *goavro.Codec
}

// SchemaRegistry looks up schemas by subject.
type SchemaRegistry struct {
	baseURL string
	client  *http.Client
}

type registryResponse struct {
	Subject string `json:"subject"`
	ID      int    `json:"id"`
	Version int    `json:"version"`
	Schema  string `json:"schema"`
}

// NewSchemaRegistry creates a registry client. If client is nil a pooled cleanhttp client is used.
func NewSchemaRegistry(baseURL string, client *http.Client) *SchemaRegistry {
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	return &SchemaRegistry{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

// Latest returns the latest version of the subject's schema.
//
// The codec accepts standard JSON for union fields, so message values can be written as the
// plain objects a service would log rather than in Avro's tagged-union JSON form.
func (r *SchemaRegistry) Latest(ctx context.Context, subject string) (Schema, error) {
	u := fmt.Sprintf("%s/subjects/%s/versions/latest", r.baseURL, url.PathEscape(subject))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Schema{}, err
	}
	req.Header.Set("Accept", "application/vnd.schemaregistry.v1+json, application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return Schema{}, fmt.Errorf("fetching schema %q: %w", subject, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Schema{}, fmt.Errorf("fetching schema %q: %w", subject, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Schema{}, fmt.Errorf("fetching schema %q: registry returned status %d: %s",
			subject, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var rr registryResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return Schema{}, fmt.Errorf("malformed registry response for %q: %w", subject, err)
	}
	codec, err := goavro.NewCodecForStandardJSON(rr.Schema)
	if err != nil {
		return Schema{}, fmt.Errorf("invalid Avro schema for %q: %w", subject, err)
	}
	return Schema{Subject: subject, ID: rr.ID, Version: rr.Version, Codec: codec}, nil
}
