package ledger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

type LedgerServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	service *Service

	subjectID  id.SubjectID
	guardianID id.GuardianID
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.service = NewService(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.subjectID = id.NewSubjectID()
	s.guardianID = id.NewGuardianID()
}

func (s *LedgerServiceSuite) TestPosting() {
	ctx := context.Background()

	s.Run("zero amount rejected", func() {
		_, err := s.service.PostCredit(ctx, s.subjectID, s.guardianID, 0, "nothing")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("negative amount rejected", func() {
		_, err := s.service.PostDebit(ctx, s.subjectID, s.guardianID, -100, "nothing")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("credits and debits net to the balance", func() {
		_, err := s.service.PostCredit(ctx, s.subjectID, s.guardianID, 1500, "Weekly allowance")
		s.Require().NoError(err)
		_, err = s.service.PostCredit(ctx, s.subjectID, s.guardianID, 500, "Bonus for entering School")
		s.Require().NoError(err)
		_, err = s.service.PostDebit(ctx, s.subjectID, s.guardianID, 1000, "Penalty for No-Go Zone")
		s.Require().NoError(err)

		balance, err := s.service.Balance(ctx, s.subjectID)
		s.Require().NoError(err)
		s.Equal(int64(1000), balance)
	})

	s.Run("balance can go negative", func() {
		_, err := s.service.PostDebit(ctx, s.subjectID, s.guardianID, 5000, "Penalty for No-Go Zone")
		s.Require().NoError(err)

		balance, err := s.service.Balance(ctx, s.subjectID)
		s.Require().NoError(err)
		s.Equal(int64(-4000), balance)
	})
}

func (s *LedgerServiceSuite) TestStatement() {
	ctx := context.Background()
	for range 5 {
		_, err := s.service.PostCredit(ctx, s.subjectID, s.guardianID, 100, "Bonus")
		s.Require().NoError(err)
	}

	s.Run("newest first with limit", func() {
		entries, err := s.service.Statement(ctx, s.subjectID, 3)
		s.Require().NoError(err)
		s.Len(entries, 3)
	})

	s.Run("other subjects are isolated", func() {
		entries, err := s.service.Statement(ctx, id.NewSubjectID(), 0)
		s.Require().NoError(err)
		s.Empty(entries)
	})
}
