package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSecretStore behaves like Secrets Manager for names it knows about
type fakeSecretStore struct {
	secrets   map[string]string
	createErr error
	updateErr error
	updates   int
	creates   int
}

func newFakeSecretStore() *fakeSecretStore {
	return &fakeSecretStore{secrets: map[string]string{}}
}

func (f *fakeSecretStore) UpdateSecret(ctx context.Context, params *secretsmanager.UpdateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.UpdateSecretOutput, error) {
	f.updates++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	name := aws.ToString(params.SecretId)
	if _, ok := f.secrets[name]; !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Secrets Manager can't find the specified secret.")}
	}
	f.secrets[name] = aws.ToString(params.SecretString)
	return &secretsmanager.UpdateSecretOutput{Name: params.SecretId}, nil
}

func (f *fakeSecretStore) CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.secrets[aws.ToString(params.Name)] = aws.ToString(params.SecretString)
	return &secretsmanager.CreateSecretOutput{Name: params.Name}, nil
}

func (f *fakeSecretStore) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	name := aws.ToString(params.SecretId)
	value, ok := f.secrets[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("not found")}
	}
	return &secretsmanager.GetSecretValueOutput{Name: params.SecretId, SecretString: aws.String(value)}, nil
}

func TestSecretName(t *testing.T) {
	assert.Equal(t, "essmdatalake-cc-wrike-apicredentials-sm-dev", SecretName("wrike", "dev"))
	assert.Equal(t, "essmdatalake-cc-eloqua-apicredentials-sm-prd", SecretName("eloqua", "prd"))
}

func TestUpsertSecret_UpdatesExisting(t *testing.T) {
	store := newFakeSecretStore()
	store.secrets["app/secret"] = `{"token":"old"}`
	service := NewSecretsManagerService(store)

	outcome, err := service.UpsertSecret(context.Background(), "app/secret", map[string]string{"token": "new"})
	require.NoError(t, err)
	assert.Equal(t, SecretUpdated, outcome)
	assert.Equal(t, `{"token":"new"}`, store.secrets["app/secret"])
	assert.Equal(t, 0, store.creates)
}

func TestUpsertSecret_CreatesWhenMissing(t *testing.T) {
	store := newFakeSecretStore()
	service := NewSecretsManagerService(store)

	input := map[string]any{"client_id": "abc", "client_secret": "xyz", "port": 443}
	outcome, err := service.UpsertSecret(context.Background(), "app/secret", input)
	require.NoError(t, err)
	assert.Equal(t, SecretCreated, outcome)
	assert.Equal(t, 1, store.updates)
	assert.Equal(t, 1, store.creates)

	stored, err := service.GetSecret(context.Background(), "app/secret")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored), &got))
	assert.Equal(t, map[string]any{"client_id": "abc", "client_secret": "xyz", "port": float64(443)}, got)
}

func TestUpsertSecret_CreatesOnGenericNotFoundCode(t *testing.T) {
	store := newFakeSecretStore()
	store.updateErr = &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "missing"}
	service := NewSecretsManagerService(store)

	outcome, err := service.UpsertSecret(context.Background(), "app/secret", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, SecretCreated, outcome)
}

func TestUpsertSecret_CreateFails(t *testing.T) {
	store := newFakeSecretStore()
	store.createErr = &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "not authorized to create"}
	service := NewSecretsManagerService(store)

	outcome, err := service.UpsertSecret(context.Background(), "app/secret", map[string]string{"a": "b"})
	assert.Equal(t, SecretFailed, outcome)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update secret")
	assert.Contains(t, err.Error(), "failed to create secret")
	assert.Empty(t, store.secrets)
}

func TestUpsertSecret_OtherUpdateErrorSkipsCreate(t *testing.T) {
	store := newFakeSecretStore()
	store.updateErr = &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}
	service := NewSecretsManagerService(store)

	outcome, err := service.UpsertSecret(context.Background(), "app/secret", map[string]string{"a": "b"})
	assert.Equal(t, SecretFailed, outcome)
	assert.Error(t, err)
	assert.Equal(t, "AccessDeniedException", ErrorCode(err))
	assert.Equal(t, 0, store.creates)
}

func TestUpsertSecret_UnmarshalableValue(t *testing.T) {
	store := newFakeSecretStore()
	service := NewSecretsManagerService(store)

	outcome, err := service.UpsertSecret(context.Background(), "app/secret", map[string]any{"fn": func() {}})
	assert.Equal(t, SecretFailed, outcome)
	assert.Error(t, err)
	assert.Equal(t, 0, store.updates)
}

func TestGetSecret_NoStringValue(t *testing.T) {
	store := &nilStringStore{fakeSecretStore: newFakeSecretStore()}
	service := NewSecretsManagerService(store)

	_, err := service.GetSecret(context.Background(), "binary")
	assert.Error(t, err)
}

type nilStringStore struct {
	*fakeSecretStore
}

func (n *nilStringStore) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return &secretsmanager.GetSecretValueOutput{SecretBinary: []byte{0x1}}, nil
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: errors.New("boom"), want: "boom"},
		{
			name: "api error",
			err:  &smithy.GenericAPIError{Code: "ValidationException", Message: "bad table"},
			want: "bad table",
		},
		{
			name: "api error without message",
			err:  &smithy.GenericAPIError{Code: "ValidationException"},
			want: "api error ValidationException: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}
