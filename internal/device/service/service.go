// Package service handles device registration and credential exchange.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"roadwatch/internal/device"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
	"roadwatch/pkg/platform/sentinel"
)

// TokenIssuer mints the short-lived JWTs devices use on the ingest endpoints.
type TokenIssuer interface {
	GenerateDeviceToken(guardianID id.GuardianID, subjectID id.SubjectID, expiresIn time.Duration) (string, error)
}

// Service registers devices and exchanges their long-lived API keys for
// short-lived tokens. API keys are bcrypt-hashed at rest; the plaintext is
// returned exactly once, at registration.
type Service struct {
	store    device.Store
	tokens   TokenIssuer
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewService(store device.Store, tokens TokenIssuer, tokenTTL time.Duration, logger *slog.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Service{store: store, tokens: tokens, tokenTTL: tokenTTL, logger: logger}
}

// Register creates a device for a subject and returns it together with the
// plaintext API key.
func (s *Service) Register(ctx context.Context, guardianID id.GuardianID, subjectID id.SubjectID, name string) (*device.Device, string, error) {
	if name == "" {
		return nil, "", dErrors.New(dErrors.CodeInvalidInput, "device name required")
	}
	if guardianID.IsNil() || subjectID.IsNil() {
		return nil, "", dErrors.New(dErrors.CodeInvalidInput, "guardian and subject ids required")
	}

	apiKey, err := newAPIKey()
	if err != nil {
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "failed to generate api key", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "failed to hash api key", err)
	}

	d := &device.Device{
		ID:         id.NewDeviceID(),
		GuardianID: guardianID,
		SubjectID:  subjectID,
		Name:       name,
		APIKeyHash: hash,
		CreatedAt:  time.Now(),
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, "", dErrors.Wrap(dErrors.CodeInternal, "failed to create device", err)
	}

	s.logger.InfoContext(ctx, "device registered",
		"device_id", d.ID.String(),
		"subject_id", subjectID.String(),
	)
	return d, apiKey, nil
}

// newAPIKey returns 32 random bytes hex-encoded, comfortably under bcrypt's
// 72-byte input limit.
func newAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Authenticate verifies a device's API key and returns a device token. Bad
// credentials map to a single unauthorized error to avoid leaking which part
// failed.
func (s *Service) Authenticate(ctx context.Context, deviceID id.DeviceID, apiKey string) (string, error) {
	d, err := s.store.FindByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid device credentials")
		}
		return "", dErrors.Wrap(dErrors.CodeInternal, "failed to load device", err)
	}
	if err := bcrypt.CompareHashAndPassword(d.APIKeyHash, []byte(apiKey)); err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid device credentials")
	}

	token, err := s.tokens.GenerateDeviceToken(d.GuardianID, d.SubjectID, s.tokenTTL)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "failed to issue device token", err)
	}

	if err := s.store.TouchLastSeen(ctx, d.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to update device last seen",
			"device_id", d.ID.String(),
			"error", err.Error(),
		)
	}
	return token, nil
}

// List returns the guardian's registered devices.
func (s *Service) List(ctx context.Context, guardianID id.GuardianID) ([]*device.Device, error) {
	devices, err := s.store.ListByGuardian(ctx, guardianID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list devices", err)
	}
	return devices, nil
}

// Revoke deletes a device; its API key stops working immediately, though any
// outstanding token stays valid until it expires.
func (s *Service) Revoke(ctx context.Context, guardianID id.GuardianID, deviceID id.DeviceID) error {
	d, err := s.store.FindByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "device not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to load device", err)
	}
	if d.GuardianID != guardianID {
		return dErrors.New(dErrors.CodeNotFound, "device not found")
	}
	if err := s.store.Delete(ctx, deviceID); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete device", err)
	}
	return nil
}
