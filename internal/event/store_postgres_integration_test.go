//go:build integration

package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/testutil/containers"
)

type PostgresEventStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore

	subjectID  id.SubjectID
	guardianID id.GuardianID
}

func TestPostgresEventStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresEventStoreSuite))
}

func (s *PostgresEventStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgresStore(s.pg.DB)
}

func (s *PostgresEventStoreSuite) TearDownSuite() {
	_ = s.pg.DB.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *PostgresEventStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(context.Background()))
	s.subjectID = id.NewSubjectID()
	s.guardianID = id.NewGuardianID()
}

func (s *PostgresEventStoreSuite) append(regionID id.RegionID, action Action, at time.Time) *Event {
	e := &Event{
		SubjectID:  s.subjectID,
		GuardianID: s.guardianID,
		RegionID:   regionID,
		Action:     action,
		Lat:        40.0,
		Lon:        -75.0,
		CreatedAt:  at,
	}
	s.Require().NoError(s.store.Append(context.Background(), e))
	return e
}

func (s *PostgresEventStoreSuite) TestLatestPerRegionBatch() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	regionA := id.NewRegionID()
	regionB := id.NewRegionID()
	regionC := id.NewRegionID()

	s.append(regionA, ActionEnter, base)
	s.append(regionA, ActionExit, base.Add(time.Minute))
	s.append(regionB, ActionEnter, base.Add(2*time.Minute))

	latest, err := s.store.LatestPerRegion(ctx, s.subjectID, []id.RegionID{regionA, regionB, regionC})
	s.Require().NoError(err)

	s.Require().Contains(latest, regionA)
	s.Equal(ActionExit, latest[regionA].Action)
	s.Require().Contains(latest, regionB)
	s.Equal(ActionEnter, latest[regionB].Action)
	s.NotContains(latest, regionC)
}

func (s *PostgresEventStoreSuite) TestLatestPerRegionTieBreaksOnID() {
	// Same timestamp: the higher event id wins, matching insert order
	// closely enough for same-instant writes.
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Microsecond)
	regionA := id.NewRegionID()

	s.append(regionA, ActionEnter, at)
	s.append(regionA, ActionExit, at)

	latest, err := s.store.LatestPerRegion(ctx, s.subjectID, []id.RegionID{regionA})
	s.Require().NoError(err)
	s.Require().Contains(latest, regionA)
}

func (s *PostgresEventStoreSuite) TestListBySubjectNewestFirst() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	regionA := id.NewRegionID()
	regionB := id.NewRegionID()

	s.append(regionA, ActionEnter, base)
	s.append(regionB, ActionEnter, base.Add(time.Minute))
	s.append(regionA, ActionExit, base.Add(2*time.Minute))

	events, err := s.store.ListBySubject(ctx, s.subjectID, id.RegionID{}, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(ActionExit, events[0].Action)

	filtered, err := s.store.ListBySubject(ctx, s.subjectID, regionB, 0)
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(regionB, filtered[0].RegionID)
}

func (s *PostgresEventStoreSuite) TestAttachSideEffects() {
	ctx := context.Background()
	regionA := id.NewRegionID()
	e := s.append(regionA, ActionEnter, time.Now().UTC())

	entryID := id.NewLedgerEntryID()
	s.Require().NoError(s.store.AttachSideEffects(ctx, e.ID, entryID, id.NotificationID{}))

	events, err := s.store.ListBySubject(ctx, s.subjectID, regionA, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(entryID, events[0].LedgerEntryID)
	s.True(events[0].NotificationID.IsNil())
}
