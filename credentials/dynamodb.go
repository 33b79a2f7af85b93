package credentials

import (
	"context"
	"fmt"

	"github.com/apitaf/apitaf/data"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// Schema of the credentials table
	tablePartitionKey = "id"
	headersAttribute  = "headers"
)

// DynamoDBStore keeps headers in a map attribute of one item, keyed by a string partition key.
type DynamoDBStore struct {
	dynamodb *dynamodb.Client
	table    string
	id       string
}

func NewDynamoDBStore(client *dynamodb.Client, table, id string) *DynamoDBStore {
	return &DynamoDBStore{dynamodb: client, table: table, id: id}
}

func (d *DynamoDBStore) Location() string {
	return fmt.Sprintf("dynamodb://%s/%s", d.table, d.id)
}

func (d *DynamoDBStore) Load(ctx context.Context) (map[string]string, error) {
	result, err := d.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.key(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s failed: %w", d.Location(), err)
	}
	if result.Item == nil {
		return nil, data.ConfigurationError{Path: d.Location(), Reason: missingCredentialsReason, Fatal: true}
	}
	attr, ok := result.Item[headersAttribute].(*types.AttributeValueMemberM)
	if !ok {
		return nil, data.ConfigurationError{Path: d.Location(), Reason: "item has no headers map", Fatal: true}
	}
	headers := make(map[string]string, len(attr.Value))
	for k, v := range attr.Value {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok {
			return nil, data.ConfigurationError{Path: d.Location(), Reason: fmt.Sprintf("header %q is not a string", k), Fatal: true}
		}
		headers[k] = s.Value
	}
	return headers, nil
}

func (d *DynamoDBStore) Save(ctx context.Context, headers map[string]string) error {
	item := d.key()
	item[headersAttribute] = headersToAttribute(headers)
	_, err := d.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	return err
}

func (d *DynamoDBStore) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		tablePartitionKey: &types.AttributeValueMemberS{Value: d.id},
	}
}

func headersToAttribute(headers map[string]string) types.AttributeValue {
	m := make(map[string]types.AttributeValue, len(headers))
	for k, v := range headers {
		m[k] = &types.AttributeValueMemberS{Value: v}
	}
	return &types.AttributeValueMemberM{Value: m}
}
