package testutil

import (
	"context"
	"net/http"

	"roadwatch/internal/platform/middleware"
	id "roadwatch/pkg/domain"
)

// WithGuardianID adds a guardian ID to the request context, simulating what
// the auth middleware does for authenticated dashboard requests. Invalid
// UUIDs are silently ignored.
func WithGuardianID(req *http.Request, guardianID string) *http.Request {
	if parsed, err := id.ParseGuardianID(guardianID); err == nil {
		ctx := context.WithValue(req.Context(), middleware.ContextKeyGuardianID, parsed)
		return req.WithContext(ctx)
	}
	return req
}

// WithDeviceAuth adds guardian and subject IDs to the request context,
// simulating an authenticated device on the ingest endpoints.
func WithDeviceAuth(req *http.Request, guardianID, subjectID string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseGuardianID(guardianID); err == nil {
		ctx = context.WithValue(ctx, middleware.ContextKeyGuardianID, parsed)
	}
	if parsed, err := id.ParseSubjectID(subjectID); err == nil {
		ctx = context.WithValue(ctx, middleware.ContextKeySubjectID, parsed)
	}
	return req.WithContext(ctx)
}
