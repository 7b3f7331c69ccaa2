package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ContextUserKey         ctxKey = "userID"
	ContextOrganizationKey ctxKey = "organizationID"
)

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	if userID, ok := ctx.Value(ContextUserKey).(uuid.UUID); ok && userID != uuid.Nil {
		return userID, true
	}
	return uuid.Nil, false
}

func ContextWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ContextUserKey, userID)
}

// OrganizationFromContext returns the tenant scope for the request. Every
// repository query must be bounded by this ID.
func OrganizationFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	if orgID, ok := ctx.Value(ContextOrganizationKey).(uuid.UUID); ok && orgID != uuid.Nil {
		return orgID, true
	}
	return uuid.Nil, false
}

func ContextWithOrganization(ctx context.Context, orgID uuid.UUID) context.Context {
	return context.WithValue(ctx, ContextOrganizationKey, orgID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
