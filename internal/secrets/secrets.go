// Package secrets fetches the service account credential used by the
// inference endpoint from Google Secret Manager.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/withobsrvr/crawlersetup/internal/utils/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrSecretAccess indicates the secret store could not be reached or did not return the secret.
	ErrSecretAccess = errors.New("secret access failed")

	// ErrMalformedSecret indicates the secret payload is not a JSON document.
	ErrMalformedSecret = errors.New("secret is not a valid JSON string")
)

// Ref identifies one version of a secret.
type Ref struct {
	ProjectID string
	Name      string
	Version   string
}

// DefaultRef returns the secret holding the Vertex AI service account.
func DefaultRef() Ref {
	return Ref{
		ProjectID: "rag-query-analytics",
		Name:      "snippets-api-project-service-account-json",
		Version:   "latest",
	}
}

// Path returns the resource name of the secret version.
func (r Ref) Path() string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", r.ProjectID, r.Name, r.Version)
}

// AccessFunc returns the raw payload of the named secret version.
type AccessFunc func(ctx context.Context, name string) ([]byte, error)

// Fetcher reads a single secret version. Every Fetch goes to the store.
type Fetcher struct {
	ref    Ref
	access AccessFunc
	close  func() error
}

// NewFetcher returns a Fetcher that reads ref through access.
func NewFetcher(ref Ref, access AccessFunc) *Fetcher {
	return &Fetcher{ref: ref, access: access}
}

// NewGCPFetcher connects to Secret Manager with application default credentials.
func NewGCPFetcher(ctx context.Context, ref Ref) (*Fetcher, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create secret manager client: %w", ErrSecretAccess, err)
	}

	access := func(ctx context.Context, name string) ([]byte, error) {
		resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
			Name: name,
		})
		if err != nil {
			return nil, err
		}
		return resp.GetPayload().GetData(), nil
	}

	f := NewFetcher(ref, access)
	f.close = client.Close
	return f, nil
}

// Fetch returns the secret payload after checking that it is UTF-8 JSON.
// There is no retry.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	name := f.ref.Path()
	logger.Debug("Fetching secret", zap.String("secret", name))

	data, err := f.access(ctx, name)
	if err != nil {
		if IsNotFound(err) {
			logger.Error("Secret does not exist", zap.String("secret", name))
		}
		return "", fmt.Errorf("%w: %s (%s): %w", ErrSecretAccess, name, status.Code(err), err)
	}

	if err := Validate(data); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	return string(data), nil
}

// Close releases the underlying client, if any.
func (f *Fetcher) Close() error {
	if f.close != nil {
		return f.close()
	}
	return nil
}

// Validate reports ErrMalformedSecret unless data is a UTF-8 JSON document.
func Validate(data []byte) error {
	if !utf8.Valid(data) || !json.Valid(data) {
		return ErrMalformedSecret
	}
	return nil
}

// IsNotFound reports whether err came from a secret that does not exist.
func IsNotFound(err error) bool {
	var se interface{ GRPCStatus() *status.Status }
	if errors.As(err, &se) {
		return se.GRPCStatus().Code() == codes.NotFound
	}
	return false
}
