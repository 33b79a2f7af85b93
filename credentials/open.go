package credentials

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	consul "github.com/hashicorp/consul/api"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "taf:auth"

// Open creates a Store from a location:
//
//	file:<path>                       JSON or YAML file; relative paths are relative to root
//	<path>                            same as file:<path>
//	redis://[:password@]host:port/db?key=<hash key>
//	consul://host:port/<kv key>
//	dynamodb://<table>/<id>?region=<region>&endpoint=<url>
//
// Opening a store does not connect to it.
func Open(ctx context.Context, location, root string) (Store, error) {
	scheme, rest, hasScheme := strings.Cut(location, ":")
	if !hasScheme || len(scheme) == 1 { // a bare path, possibly with a Windows drive letter
		return NewFileStore(resolvePath(location, root)), nil
	}
	switch scheme {
	case "file":
		return NewFileStore(resolvePath(rest, root)), nil
	case "redis", "rediss":
		return openRedis(location)
	case "consul":
		return openConsul(location)
	case "dynamodb":
		return openDynamoDB(ctx, location)
	default:
		return nil, fmt.Errorf("unknown credential store type %q in %q", scheme, location)
	}
}

func resolvePath(p, root string) string {
	if filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}

func openRedis(location string) (Store, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	key := q.Get("key")
	if key == "" {
		key = defaultRedisKey
	}
	q.Del("key")
	u.RawQuery = q.Encode()
	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, fmt.Errorf("invalid redis location %q: %w", location, err)
	}
	return NewRedisStore(redis.NewClient(opts), key), nil
}

func openConsul(location string) (Store, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return nil, fmt.Errorf("consul location %q has no key", location)
	}
	cfg := consul.DefaultConfig()
	if u.Host != "" {
		cfg.Address = u.Host
	}
	client, err := consul.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewConsulStore(client, key), nil
}

func openDynamoDB(ctx context.Context, location string) (Store, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	table, id := u.Host, strings.TrimPrefix(u.Path, "/")
	if table == "" || id == "" {
		return nil, fmt.Errorf("dynamodb location %q must be dynamodb://<table>/<id>", location)
	}
	var loadOpts []func(*awscfg.LoadOptions) error
	if region := u.Query().Get("region"); region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(region))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load config: %w", err)
	}
	var clientOpts []func(*dynamodb.Options)
	if endpoint := u.Query().Get("endpoint"); endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return NewDynamoDBStore(dynamodb.NewFromConfig(cfg, clientOpts...), table, id), nil
}
