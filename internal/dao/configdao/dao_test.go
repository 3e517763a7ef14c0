package configdao

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	json "github.com/goccy/go-json"
	derrors "github.com/savaki/datalake-loader/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryTable is an in-memory stand-in for a single-key DynamoDB table
type memoryTable struct {
	partitionKey string
	items        map[string]map[string]types.AttributeValue
	gets         int
	puts         int
	putErr       error
	getErr       error
}

func newMemoryTable(partitionKey string) *memoryTable {
	return &memoryTable{
		partitionKey: partitionKey,
		items:        map[string]map[string]types.AttributeValue{},
	}
}

func keyString(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + v.Value
	case *types.AttributeValueMemberN:
		return "N:" + v.Value
	default:
		return "?"
	}
}

func (m *memoryTable) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	item := m.items[keyString(params.Key[m.partitionKey])]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (m *memoryTable) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.puts++
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.items[keyString(params.Item[m.partitionKey])] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestTableName(t *testing.T) {
	tests := []struct {
		platform string
		env      string
		want     string
	}{
		{platform: "wrike", env: "dev", want: "essmdatalake-cc-wrike-config-table-dev"},
		{platform: "eloqua", env: "prd", want: "essmdatalake-cc-eloqua-config-table-prd"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TableName(tt.platform, tt.env))
		})
	}
}

func TestNew_DefaultPartitionKey(t *testing.T) {
	dao := New(newMemoryTable(DefaultPartitionKey), "table", "")
	assert.Equal(t, "configId", dao.PartitionKey())
	assert.Equal(t, "table", dao.TableName())
}

func TestPutGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	table := newMemoryTable("configId")
	dao := New(table, "essmdatalake-cc-wrike-config-table-dev", "configId")

	item := Item{
		"configId": "contacts",
		"url":      "https://x/contacts",
		"pageSize": json.Number("500"),
		"enabled":  true,
		"fields":   []any{"id", "email"},
		"auth":     map[string]any{"type": "oauth", "scopes": []any{"read"}, "ttl": json.Number("3600")},
	}
	require.NoError(t, dao.Put(ctx, item))

	got, err := dao.Get(ctx, "contacts")
	require.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestPutGet_RoundTripLargeNumbers(t *testing.T) {
	ctx := context.Background()
	table := newMemoryTable("configId")
	dao := New(table, "t", "configId")

	item := Item{
		"configId":  "A",
		"accountId": json.Number("9007199254740993"),
		"lastId":    json.Number("12345678901234567890"),
		"ratio":     json.Number("1.0"),
		"ids":       []any{json.Number("9007199254740995")},
	}
	require.NoError(t, dao.Put(ctx, item))

	stored := table.items["S:A"]
	assert.Equal(t, &types.AttributeValueMemberN{Value: "9007199254740993"}, stored["accountId"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "12345678901234567890"}, stored["lastId"])

	got, err := dao.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestPut_OverwritesWholeRecord(t *testing.T) {
	ctx := context.Background()
	table := newMemoryTable("configId")
	dao := New(table, "t", "configId")

	require.NoError(t, dao.Put(ctx, Item{"configId": "A", "old": "value"}))
	require.NoError(t, dao.Put(ctx, Item{"configId": "A", "new": "value"}))

	got, err := dao.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, Item{"configId": "A", "new": "value"}, got)
}

func TestPut_MissingPartitionKey(t *testing.T) {
	table := newMemoryTable("configId")
	dao := New(table, "t", "configId")

	err := dao.Put(context.Background(), Item{"name": "no key"})
	assert.Error(t, err)
	assert.Equal(t, 0, table.puts)
}

func TestPut_APIError(t *testing.T) {
	table := newMemoryTable("configId")
	table.putErr = &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "Requested resource not found"}
	dao := New(table, "t", "configId")

	err := dao.Put(context.Background(), Item{"configId": "A"})
	var apiErr smithy.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Requested resource not found", apiErr.ErrorMessage())
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	table := newMemoryTable("id")
	dao := New(table, "t", "id")

	exists, err := dao.Exists(ctx, "A")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, dao.Put(ctx, Item{"id": "A"}))

	exists, err = dao.Exists(ctx, "A")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExists_NumericKey(t *testing.T) {
	ctx := context.Background()
	table := newMemoryTable("id")
	dao := New(table, "t", "id")

	require.NoError(t, dao.Put(ctx, Item{"id": float64(42)}))

	exists, err := dao.Exists(ctx, float64(42))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = dao.Exists(ctx, "42")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExists_APIError(t *testing.T) {
	table := newMemoryTable("configId")
	table.getErr = errors.New("throttled")
	dao := New(table, "t", "configId")

	_, err := dao.Exists(context.Background(), "A")
	assert.Error(t, err)
}

func TestExists_RequestShape(t *testing.T) {
	var got *dynamodb.GetItemInput
	client := &capturingClient{getItem: func(params *dynamodb.GetItemInput) { got = params }}
	dao := New(client, "cfg-table", "configId")

	_, err := dao.Exists(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "cfg-table", aws.ToString(got.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "A"}, got.Key["configId"])
}

type capturingClient struct {
	getItem func(params *dynamodb.GetItemInput)
}

func (c *capturingClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.getItem(params)
	return &dynamodb.GetItemOutput{}, nil
}

func (c *capturingClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return &dynamodb.PutItemOutput{}, nil
}

func TestGet_NotFound(t *testing.T) {
	dao := New(newMemoryTable("configId"), "t", "configId")

	_, err := dao.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, derrors.ErrItemNotFound)
}
