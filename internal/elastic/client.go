// Package elastic is the search cluster side of provisioning: it builds an
// authenticated client and exposes the ingest pipeline and inference
// endpoint calls the assembler needs.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/withobsrvr/crawlersetup/internal/config"
	"github.com/withobsrvr/crawlersetup/internal/provision"
	"github.com/withobsrvr/crawlersetup/internal/utils/logger"
	"go.uber.org/zap"
)

// ErrClusterUnreachable is returned by New when the liveness check fails.
var ErrClusterUnreachable = errors.New("elasticsearch cluster is not reachable")

// opaqueIDHeader carries the run id so cluster side logs can be matched to a run.
const opaqueIDHeader = "X-Opaque-Id"

// Client wraps the go-elasticsearch client.
type Client struct {
	es *elasticsearch.Client
}

// New builds a client for cfg and pings the cluster before returning it.
func New(ctx context.Context, cfg config.Cluster, runID string) (*Client, error) {
	header := http.Header{}
	if runID != "" {
		header.Set(opaqueIDHeader, runID)
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Address()},
		APIKey:    cfg.APIKey,
		Header:    header,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	c := &Client{es: es}
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	logger.Info("Connected to Elasticsearch", zap.String("address", cfg.Address()))
	return c, nil
}

// Ping checks that the cluster answers with a success status.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClusterUnreachable, err)
	}
	defer drain(res)

	if res.IsError() {
		return fmt.Errorf("%w: ping returned %s", ErrClusterUnreachable, res.Status())
	}
	return nil
}

// GetPipeline reports whether the ingest pipeline id exists.
func (c *Client) GetPipeline(ctx context.Context, id string) (provision.Presence, error) {
	res, err := c.es.Ingest.GetPipeline(
		c.es.Ingest.GetPipeline.WithPipelineID(id),
		c.es.Ingest.GetPipeline.WithContext(ctx),
	)
	return presence(res, err)
}

// PutPipeline creates the ingest pipeline id from body, which is encoded as JSON.
func (c *Client) PutPipeline(ctx context.Context, id string, body any) error {
	payload, err := encode(body)
	if err != nil {
		return err
	}

	res, err := c.es.Ingest.PutPipeline(id, payload, c.es.Ingest.PutPipeline.WithContext(ctx))
	return acknowledged(res, err)
}

// GetInferenceEndpoint reports whether the inference endpoint id exists for taskType.
func (c *Client) GetInferenceEndpoint(ctx context.Context, taskType, id string) (provision.Presence, error) {
	req := esapi.InferenceGetRequest{
		TaskType:    taskType,
		InferenceID: id,
	}
	res, err := req.Do(ctx, c.es)
	return presence(res, err)
}

// PutInferenceEndpoint creates the inference endpoint id for taskType from body.
func (c *Client) PutInferenceEndpoint(ctx context.Context, taskType, id string, body any) error {
	payload, err := encode(body)
	if err != nil {
		return err
	}

	req := esapi.InferencePutRequest{
		TaskType:    taskType,
		InferenceID: id,
		Body:        payload,
	}
	res, err := req.Do(ctx, c.es)
	return acknowledged(res, err)
}

// presence maps a lookup response: 404 is Missing, any other error status is a failure.
func presence(res *esapi.Response, err error) (provision.Presence, error) {
	if err != nil {
		return provision.Missing, err
	}
	defer drain(res)

	switch {
	case res.StatusCode == http.StatusNotFound:
		return provision.Missing, nil
	case res.IsError():
		return provision.Missing, responseError(res)
	default:
		return provision.Found, nil
	}
}

func acknowledged(res *esapi.Response, err error) error {
	if err != nil {
		return err
	}
	defer drain(res)

	if res.IsError() {
		return responseError(res)
	}
	return nil
}

// responseError reads the error body. It must be called before the body is drained.
func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("elasticsearch returned %s: %s", res.Status(), bytes.TrimSpace(body))
}

func encode(body any) (io.Reader, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return &buf, nil
}

func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
