package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("resolver: not found")

// IdentityResolver maps a creator identity (handle) to the internal numeric
// member id.
type IdentityResolver interface {
	ResolveUserID(ctx context.Context, handle string) (int64, error)
}

// CopilotResolver returns the member id of the copilot assigned to a
// challenge, or ErrNotFound when the challenge has none.
type CopilotResolver interface {
	ResolveCopilotID(ctx context.Context, challengeID string) (int64, error)
}
