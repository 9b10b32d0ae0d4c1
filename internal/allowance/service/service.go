// Package service configures allowances and runs the weekly payout sweep.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"roadwatch/internal/allowance"
	"roadwatch/internal/fence"
	"roadwatch/internal/ledger"
	"roadwatch/internal/notify"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
	"roadwatch/pkg/platform/sentinel"
)

// Service manages allowance settings and posts the weekly credits. Payouts
// go through the same ledger gateway as geofence bonuses so the statement
// stays one stream.
type Service struct {
	store    allowance.Store
	ledger   ledger.Gateway
	notifier notify.Notifier
	contacts fence.ContactDirectory
	logger   *slog.Logger
	now      func() time.Time
	runTx    func(ctx context.Context, fn func(context.Context) error) error
}

func NewService(store allowance.Store, gateway ledger.Gateway, notifier notify.Notifier, contacts fence.ContactDirectory, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		ledger:   gateway,
		notifier: notifier,
		contacts: contacts,
		logger:   logger,
		now:      time.Now,
		runTx:    func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) },
	}
}

// WithClock overrides the time source; tests use it to pin payout days.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithTxRunner makes the credit and the paid marker commit together.
// Stores that honor the transaction-in-context helper participate; the
// default runner executes sequentially for memory-backed setups.
func (s *Service) WithTxRunner(run func(ctx context.Context, fn func(context.Context) error) error) *Service {
	s.runTx = run
	return s
}

// Set creates or replaces a subject's allowance settings.
func (s *Service) Set(ctx context.Context, guardianID id.GuardianID, settings *allowance.Settings) (*allowance.Settings, error) {
	settings.GuardianID = guardianID
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, settings); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to save allowance settings", err)
	}
	return s.store.FindBySubject(ctx, settings.SubjectID)
}

// Get returns a subject's allowance settings, scoped to the guardian.
func (s *Service) Get(ctx context.Context, guardianID id.GuardianID, subjectID id.SubjectID) (*allowance.Settings, error) {
	settings, err := s.store.FindBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "allowance settings not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load allowance settings", err)
	}
	if settings.GuardianID != guardianID {
		return nil, dErrors.New(dErrors.CodeNotFound, "allowance settings not found")
	}
	return settings, nil
}

// RunPayout credits every subject whose allowance is due and returns the
// number of payouts posted. One subject failing does not stop the sweep.
func (s *Service) RunPayout(ctx context.Context) (int, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "failed to list allowance settings", err)
	}

	now := s.now()
	paid := 0
	for _, settings := range all {
		if !settings.Due(now) {
			continue
		}
		if err := s.payOne(ctx, settings, now); err != nil {
			s.logger.ErrorContext(ctx, "allowance payout failed",
				"subject_id", settings.SubjectID.String(),
				"error", err.Error(),
			)
			continue
		}
		paid++
	}
	if paid > 0 {
		s.logger.InfoContext(ctx, "allowance payouts posted", "count", paid)
	}
	return paid, nil
}

func (s *Service) payOne(ctx context.Context, settings *allowance.Settings, now time.Time) error {
	desc := fmt.Sprintf("Weekly allowance (%s)", now.Format("2006-01-02"))
	err := s.runTx(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.PostCredit(ctx, settings.SubjectID, settings.GuardianID, settings.WeeklyCents, desc); err != nil {
			return err
		}
		return s.store.MarkPaid(ctx, settings.SubjectID, now)
	})
	if err != nil {
		return err
	}

	contacts, err := s.contacts.Lookup(ctx, settings.SubjectID, settings.GuardianID)
	if err != nil {
		s.logger.WarnContext(ctx, "contact lookup failed for allowance notification",
			"subject_id", settings.SubjectID.String(),
			"error", err.Error(),
		)
		return nil
	}
	n := &notify.Notification{
		ID:            id.NewNotificationID(),
		SubjectEmail:  contacts.SubjectEmail,
		GuardianEmail: contacts.GuardianEmail,
		SubjectName:   contacts.SubjectName,
		Kind:          notify.KindAllowance,
		Details:       desc,
		CreatedAt:     now,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "allowance notification failed",
			"subject_id", settings.SubjectID.String(),
			"error", err.Error(),
		)
	}
	return nil
}
