// Package middleware holds the HTTP middleware chain shared by all routers:
// request IDs, recovery, logging, timeouts, auth, and device metadata.
package middleware

import (
	"context"

	id "roadwatch/pkg/domain"
)

type contextKeyGuardianID struct{}
type contextKeySubjectID struct{}
type contextKeyRequestID struct{}
type contextKeyDevice struct{}

// Exported context keys so handlers and testutil can seed authenticated
// request contexts.
var (
	ContextKeyGuardianID = contextKeyGuardianID{}
	ContextKeySubjectID  = contextKeySubjectID{}
	ContextKeyRequestID  = contextKeyRequestID{}
	ContextKeyDevice     = contextKeyDevice{}
)

// GetGuardianID retrieves the authenticated guardian from the context.
func GetGuardianID(ctx context.Context) id.GuardianID {
	gid, ok := ctx.Value(ContextKeyGuardianID).(id.GuardianID)
	if !ok {
		return id.GuardianID{}
	}
	return gid
}

// GetSubjectID retrieves the authenticated subject (device tokens only).
func GetSubjectID(ctx context.Context) id.SubjectID {
	sid, ok := ctx.Value(ContextKeySubjectID).(id.SubjectID)
	if !ok {
		return id.SubjectID{}
	}
	return sid
}

// GetRequestID retrieves the request ID assigned by the RequestID middleware.
func GetRequestID(ctx context.Context) string {
	rid, ok := ctx.Value(ContextKeyRequestID).(string)
	if !ok {
		return ""
	}
	return rid
}

func contextWithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, rid)
}
