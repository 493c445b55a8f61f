package engine

import (
	"context"

	"github.com/disputeflow/disputeflow/core"
)

// Engine processes one dispute request through to a final response.
//
// Implementations must return (nil, error) only when the request itself is
// invalid. Runtime failures (model outage, backend failure, panic in a
// collaborator) produce a pending error response instead, so a customer
// always receives an answer that a back-office agent can pick up.
type Engine interface {
	ProcessDispute(ctx context.Context, req core.DisputeRequest) (*core.DisputeResponse, error)
}
