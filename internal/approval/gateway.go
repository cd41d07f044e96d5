// Package approval holds the contract between the order engine and the
// approval subsystem, plus the default database-backed implementation.
// The engine only ever opens a case and reacts to its terminal decision;
// workflow definitions, step sequencing, timeouts and escalation are the
// approval subsystem's business.
package approval

import (
	"context"

	"github.com/google/uuid"
)

// OpenCaseInput describes a new approval case.
type OpenCaseInput struct {
	WorkflowCode string
	Title        string
	Description  string
	EntityType   string
	EntityID     uuid.UUID
	Priority     string
	RequestedBy  uuid.UUID
}

// Gateway is everything the order engine sees of the approval subsystem.
type Gateway interface {
	OpenCase(ctx context.Context, in OpenCaseInput) (uuid.UUID, error)
}

// DecisionHandler receives terminal approve/reject decisions for one
// entity type. Handlers must treat stale or duplicate decisions as no-ops
// and report them via error so the caller can log them.
type DecisionHandler interface {
	OnApprovalDecision(ctx context.Context, entityID uuid.UUID, approved bool, deciderID uuid.UUID, comments string) error
}
