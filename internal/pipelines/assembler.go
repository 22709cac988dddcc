// Package pipelines defines the ingest pipelines and the inference endpoint
// behind the self-served crawler and provisions them in dependency order.
package pipelines

import (
	"context"
	"errors"
	"fmt"

	"github.com/withobsrvr/crawlersetup/internal/provision"
	"github.com/withobsrvr/crawlersetup/internal/utils/logger"
	"go.uber.org/zap"
)

const (
	KindPipeline          = "ingest pipeline"
	KindInferenceEndpoint = "inference endpoint"
)

// RedactedSecret replaces the service account credential in rendered definitions.
const RedactedSecret = "<redacted>"

// ErrStepFailed wraps the error of the step that stopped provisioning.
var ErrStepFailed = errors.New("provisioning step failed")

// Cluster is the part of the search cluster API the assembler uses.
type Cluster interface {
	GetPipeline(ctx context.Context, id string) (provision.Presence, error)
	PutPipeline(ctx context.Context, id string, body any) error
	GetInferenceEndpoint(ctx context.Context, taskType, id string) (provision.Presence, error)
	PutInferenceEndpoint(ctx context.Context, taskType, id string, body any) error
}

// SecretSource returns the service account credential for the inference endpoint.
type SecretSource interface {
	Fetch(ctx context.Context) (string, error)
}

// Assembler provisions the crawler resources against a cluster.
type Assembler struct {
	cluster  Cluster
	secrets  SecretSource
	settings Settings
}

// NewAssembler creates an assembler. secrets may be nil when only Inspect
// or Resources are used.
func NewAssembler(cluster Cluster, secrets SecretSource, settings Settings) *Assembler {
	return &Assembler{
		cluster:  cluster,
		secrets:  secrets,
		settings: settings,
	}
}

type step struct {
	name string
	run  func(ctx context.Context) ([]provision.Result, error)
}

// Provision ensures every resource exists. Steps run in order and the first
// failure stops the run; resources created before it are kept.
func (a *Assembler) Provision(ctx context.Context) ([]provision.Result, error) {
	steps := []step{
		{name: "normalizer pipeline", run: a.provisionNormalizer},
		{name: "embedding pipeline", run: a.provisionEmbedding},
		{name: "self-served crawler pipeline", run: a.provisionComposite},
	}

	var results []provision.Result
	for _, s := range steps {
		logger.Debug("Running provisioning step", zap.String("step", s.name))

		stepResults, err := s.run(ctx)
		results = append(results, stepResults...)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to create %s", s.name), zap.Error(err))
			return results, fmt.Errorf("%w: %s: %w", ErrStepFailed, s.name, err)
		}
	}

	return results, nil
}

func (a *Assembler) provisionNormalizer(ctx context.Context) ([]provision.Result, error) {
	r, err := a.ensurePipeline(ctx, a.settings.NormalizerPipeline())
	if err != nil {
		return nil, err
	}
	return []provision.Result{r}, nil
}

// provisionEmbedding ensures the inference endpoint before the pipeline that calls it.
func (a *Assembler) provisionEmbedding(ctx context.Context) ([]provision.Result, error) {
	if a.secrets == nil {
		return nil, errors.New("no secret source configured")
	}

	credential, err := a.secrets.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	endpoint, err := a.ensureInferenceEndpoint(ctx, a.settings.InferenceEndpoint(credential))
	if err != nil {
		return nil, err
	}

	pipeline, err := a.ensurePipeline(ctx, a.settings.EmbeddingPipeline())
	if err != nil {
		return []provision.Result{endpoint}, err
	}
	return []provision.Result{endpoint, pipeline}, nil
}

func (a *Assembler) provisionComposite(ctx context.Context) ([]provision.Result, error) {
	r, err := a.ensurePipeline(ctx, a.settings.CompositePipeline())
	if err != nil {
		return nil, err
	}
	return []provision.Result{r}, nil
}

func (a *Assembler) ensurePipeline(ctx context.Context, p Pipeline) (provision.Result, error) {
	return provision.Ensure(ctx, KindPipeline, p.ID,
		func(ctx context.Context) (provision.Presence, error) {
			return a.cluster.GetPipeline(ctx, p.ID)
		},
		func(ctx context.Context) error {
			return a.cluster.PutPipeline(ctx, p.ID, p)
		},
	)
}

func (a *Assembler) ensureInferenceEndpoint(ctx context.Context, e InferenceEndpoint) (provision.Result, error) {
	return provision.Ensure(ctx, KindInferenceEndpoint, e.ID,
		func(ctx context.Context) (provision.Presence, error) {
			return a.cluster.GetInferenceEndpoint(ctx, e.TaskType, e.ID)
		},
		func(ctx context.Context) error {
			return a.cluster.PutInferenceEndpoint(ctx, e.TaskType, e.ID, e)
		},
	)
}

// Resource is a named definition as it would be sent to the cluster.
type Resource struct {
	Kind       string `json:"kind" yaml:"kind"`
	ID         string `json:"id" yaml:"id"`
	Definition any    `json:"definition" yaml:"definition"`
}

// Resources lists every definition in provisioning order with the
// credential redacted.
func (a *Assembler) Resources() []Resource {
	s := a.settings
	normalizer := s.NormalizerPipeline()
	endpoint := s.InferenceEndpoint(RedactedSecret)
	embedding := s.EmbeddingPipeline()
	composite := s.CompositePipeline()

	return []Resource{
		{Kind: KindPipeline, ID: normalizer.ID, Definition: normalizer},
		{Kind: KindInferenceEndpoint, ID: endpoint.ID, Definition: endpoint},
		{Kind: KindPipeline, ID: embedding.ID, Definition: embedding},
		{Kind: KindPipeline, ID: composite.ID, Definition: composite},
	}
}

// Status is the result of checking one resource without changing it.
type Status struct {
	Kind     string
	ID       string
	Presence provision.Presence
	Err      error
}

// Inspect checks every resource in provisioning order. Lookup failures are
// recorded per resource rather than stopping the scan.
func (a *Assembler) Inspect(ctx context.Context) []Status {
	s := a.settings
	statuses := make([]Status, 0, 4)

	check := func(kind, id string, lookup provision.LookupFunc) {
		presence, err := lookup(ctx)
		statuses = append(statuses, Status{Kind: kind, ID: id, Presence: presence, Err: err})
	}

	for _, r := range a.Resources() {
		id := r.ID
		switch r.Kind {
		case KindInferenceEndpoint:
			check(r.Kind, id, func(ctx context.Context) (provision.Presence, error) {
				return a.cluster.GetInferenceEndpoint(ctx, s.InferenceTaskType, id)
			})
		default:
			check(r.Kind, id, func(ctx context.Context) (provision.Presence, error) {
				return a.cluster.GetPipeline(ctx, id)
			})
		}
	}

	return statuses
}
