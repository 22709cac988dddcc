package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRefPath(t *testing.T) {
	assert.Equal(t,
		"projects/rag-query-analytics/secrets/snippets-api-project-service-account-json/versions/latest",
		DefaultRef().Path())
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		err     error
		want    string
		wantErr error
	}{
		{
			name:    "valid json",
			payload: []byte(`{"type":"service_account","project_id":"p"}`),
			want:    `{"type":"service_account","project_id":"p"}`,
		},
		{
			name:    "not json",
			payload: []byte("not-json"),
			wantErr: ErrMalformedSecret,
		},
		{
			name:    "empty payload",
			payload: []byte{},
			wantErr: ErrMalformedSecret,
		},
		{
			name:    "invalid utf-8",
			payload: []byte{'"', 0xff, '"'},
			wantErr: ErrMalformedSecret,
		},
		{
			name:    "secret not found",
			err:     status.Error(codes.NotFound, "secret not found"),
			wantErr: ErrSecretAccess,
		},
		{
			name:    "store unreachable",
			err:     errors.New("dial tcp: i/o timeout"),
			wantErr: ErrSecretAccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requested string
			calls := 0
			f := NewFetcher(DefaultRef(), func(ctx context.Context, name string) ([]byte, error) {
				calls++
				requested = name
				return tt.payload, tt.err
			})

			got, err := f.Fetch(context.Background())
			assert.Equal(t, 1, calls)
			assert.Equal(t, DefaultRef().Path(), requested)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchReportsStatusCode(t *testing.T) {
	f := NewFetcher(DefaultRef(), func(ctx context.Context, name string) ([]byte, error) {
		return nil, status.Error(codes.PermissionDenied, "denied")
	})

	_, err := f.Fetch(context.Background())
	require.ErrorIs(t, err, ErrSecretAccess)
	assert.Contains(t, err.Error(), "PermissionDenied")
	assert.False(t, IsNotFound(err))
}

func TestIsNotFound(t *testing.T) {
	f := NewFetcher(DefaultRef(), func(ctx context.Context, name string) ([]byte, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})

	_, err := f.Fetch(context.Background())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestCloseWithoutClient(t *testing.T) {
	f := NewFetcher(DefaultRef(), nil)
	assert.NoError(t, f.Close())
}
