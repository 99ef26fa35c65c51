package identity

import (
	"context"

	"github.com/google/uuid"
)

// Verifier reports whether a user passed identity verification. The review
// workflow itself lives in an external service; the core only consumes the
// resulting flag.
type Verifier interface {
	IsVerified(ctx context.Context, userID uuid.UUID) (bool, error)
}
