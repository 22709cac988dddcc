// Package provision implements the check-then-create step used for every
// resource this tool manages on the search cluster.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/withobsrvr/crawlersetup/internal/utils/logger"
	"go.uber.org/zap"
)

var (
	// ErrLookup indicates the existence check failed for a reason other than absence.
	ErrLookup = errors.New("resource lookup failed")

	// ErrCreate indicates the remote system rejected the create call.
	ErrCreate = errors.New("resource creation failed")
)

// Presence is the answer to an existence check that reached the remote system.
type Presence int

const (
	// Missing means the remote system reported the resource as not found.
	Missing Presence = iota
	// Found means the resource already exists.
	Found
)

func (p Presence) String() string {
	switch p {
	case Found:
		return "found"
	case Missing:
		return "missing"
	default:
		return fmt.Sprintf("presence(%d)", int(p))
	}
}

// Outcome describes what Ensure did for a resource.
type Outcome string

const (
	OutcomeExisting Outcome = "existing"
	OutcomeCreated  Outcome = "created"
)

// Result is returned by a successful Ensure.
type Result struct {
	Kind    string
	ID      string
	Outcome Outcome
}

// LookupFunc checks whether a resource exists. A returned error means the
// check itself failed and the answer is unknown.
type LookupFunc func(ctx context.Context) (Presence, error)

// CreateFunc creates a resource that is known to be missing.
type CreateFunc func(ctx context.Context) error

// Ensure makes sure the resource identified by id exists. An existing
// resource is never modified. The call is not atomic: two concurrent runs may
// both observe Missing and both call create.
func Ensure(ctx context.Context, kind, id string, lookup LookupFunc, create CreateFunc) (Result, error) {
	result := Result{Kind: kind, ID: id}

	presence, err := lookup(ctx)
	if err != nil {
		logger.Error("Failed to check resource",
			zap.String("kind", kind),
			zap.String("id", id),
			zap.Error(err))
		return result, fmt.Errorf("%w: %s %q: %w", ErrLookup, kind, id, err)
	}

	if presence == Found {
		logger.Info("Resource already exists",
			zap.String("kind", kind),
			zap.String("id", id))
		result.Outcome = OutcomeExisting
		return result, nil
	}

	if err := create(ctx); err != nil {
		logger.Error("Failed to create resource",
			zap.String("kind", kind),
			zap.String("id", id),
			zap.Error(err))
		return result, fmt.Errorf("%w: %s %q: %w", ErrCreate, kind, id, err)
	}

	logger.Info("Resource created",
		zap.String("kind", kind),
		zap.String("id", id))
	result.Outcome = OutcomeCreated
	return result, nil
}
