package configdao

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	json "github.com/goccy/go-json"
	derrors "github.com/savaki/datalake-loader/internal/errors"
)

// DefaultPartitionKey is the attribute that identifies a config record
const DefaultPartitionKey = "configId"

// TableName returns the config table for a platform environment.
// Example: essmdatalake-cc-wrike-config-table-dev
func TableName(platform, env string) string {
	return fmt.Sprintf("essmdatalake-cc-%s-config-table-%s", platform, env)
}

// Item is a single config record. Records are schemaless apart from the
// partition key attribute.
type Item = map[string]any

// DynamoDBAPI is the subset of the DynamoDB client used by the DAO
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

var _ DynamoDBAPI = (*dynamodb.Client)(nil)

// DAO provides data access operations for config records
type DAO struct {
	client       DynamoDBAPI
	tableName    string
	partitionKey string
}

// New creates a new DAO instance. An empty partition key selects DefaultPartitionKey.
func New(client DynamoDBAPI, tableName, partitionKey string) *DAO {
	if partitionKey == "" {
		partitionKey = DefaultPartitionKey
	}
	return &DAO{
		client:       client,
		tableName:    tableName,
		partitionKey: partitionKey,
	}
}

// TableName returns the table the DAO reads and writes
func (d *DAO) TableName() string {
	return d.tableName
}

// PartitionKey returns the attribute name records are keyed by
func (d *DAO) PartitionKey() string {
	return d.partitionKey
}

func (d *DAO) key(keyValue any) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.Marshal(keyValue)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key %v: %w", keyValue, err)
	}
	return map[string]types.AttributeValue{d.partitionKey: av}, nil
}

// Exists reports whether a record with the given partition key value is stored
func (d *DAO) Exists(ctx context.Context, keyValue any) (bool, error) {
	key, err := d.key(keyValue)
	if err != nil {
		return false, err
	}

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(d.tableName),
		Key:                  key,
		ProjectionExpression: aws.String("#pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": d.partitionKey,
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get item %v: %w", keyValue, err)
	}
	return len(out.Item) > 0, nil
}

// Get reads back a full record, returning errors.ErrItemNotFound when absent.
// Numbers are returned as json.Number.
func (d *DAO) Get(ctx context.Context, keyValue any) (Item, error) {
	key, err := d.key(keyValue)
	if err != nil {
		return nil, err
	}

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item %v: %w", keyValue, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("%w: %v", derrors.ErrItemNotFound, keyValue)
	}

	var item Item
	err = attributevalue.UnmarshalMapWithOptions(out.Item, &item, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal item %v: %w", keyValue, err)
	}
	return jsonNumbers(item).(Item), nil
}

// jsonNumbers replaces attributevalue.Number with json.Number throughout v
// so a record reads back with the same numeric text it was written with
func jsonNumbers(v any) any {
	switch val := v.(type) {
	case attributevalue.Number:
		return json.Number(val)
	case map[string]any:
		for k, elem := range val {
			val[k] = jsonNumbers(elem)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = jsonNumbers(elem)
		}
		return val
	default:
		return v
	}
}

// Put writes the record whole, replacing any stored record with the same key
func (d *DAO) Put(ctx context.Context, item Item) error {
	if _, ok := item[d.partitionKey]; !ok {
		return fmt.Errorf("item is missing partition key %s", d.partitionKey)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put item %v: %w", item[d.partitionKey], err)
	}
	return nil
}
