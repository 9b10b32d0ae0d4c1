package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "roadwatch/pkg/domain"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore

	subjectID  id.SubjectID
	guardianID id.GuardianID
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.subjectID = id.NewSubjectID()
	s.guardianID = id.NewGuardianID()
}

func (s *InMemoryStoreSuite) append(regionID id.RegionID, action Action) *Event {
	e := &Event{
		SubjectID:  s.subjectID,
		GuardianID: s.guardianID,
		RegionID:   regionID,
		Action:     action,
	}
	s.Require().NoError(s.store.Append(context.Background(), e))
	return e
}

func (s *InMemoryStoreSuite) TestAppendAssignsIdentity() {
	e := s.append(id.NewRegionID(), ActionEnter)
	s.False(e.ID.IsNil())
	s.False(e.CreatedAt.IsZero())
}

func (s *InMemoryStoreSuite) TestLatestPerRegion() {
	ctx := context.Background()
	regionA := id.NewRegionID()
	regionB := id.NewRegionID()
	regionC := id.NewRegionID()

	s.append(regionA, ActionEnter)
	s.append(regionA, ActionExit)
	s.append(regionB, ActionEnter)

	latest, err := s.store.LatestPerRegion(ctx, s.subjectID, []id.RegionID{regionA, regionB, regionC})
	s.Require().NoError(err)

	s.Require().Contains(latest, regionA)
	s.Equal(ActionExit, latest[regionA].Action, "the most recent event wins")
	s.Require().Contains(latest, regionB)
	s.Equal(ActionEnter, latest[regionB].Action)
	s.NotContains(latest, regionC, "regions with no history are absent")
}

func (s *InMemoryStoreSuite) TestLatestPerRegionIsolatesSubjects() {
	ctx := context.Background()
	regionA := id.NewRegionID()
	s.append(regionA, ActionEnter)

	latest, err := s.store.LatestPerRegion(ctx, id.NewSubjectID(), []id.RegionID{regionA})
	s.Require().NoError(err)
	s.Empty(latest)
}

func (s *InMemoryStoreSuite) TestListBySubject() {
	ctx := context.Background()
	regionA := id.NewRegionID()
	regionB := id.NewRegionID()

	s.append(regionA, ActionEnter)
	s.append(regionB, ActionEnter)
	s.append(regionA, ActionExit)

	s.Run("newest first across regions", func() {
		events, err := s.store.ListBySubject(ctx, s.subjectID, id.RegionID{}, 0)
		s.Require().NoError(err)
		s.Require().Len(events, 3)
		s.Equal(ActionExit, events[0].Action)
	})

	s.Run("region filter applies", func() {
		events, err := s.store.ListBySubject(ctx, s.subjectID, regionB, 0)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(regionB, events[0].RegionID)
	})

	s.Run("limit truncates", func() {
		events, err := s.store.ListBySubject(ctx, s.subjectID, id.RegionID{}, 2)
		s.Require().NoError(err)
		s.Len(events, 2)
	})
}

func (s *InMemoryStoreSuite) TestAttachSideEffects() {
	ctx := context.Background()
	regionA := id.NewRegionID()
	e := s.append(regionA, ActionEnter)

	entryID := id.NewLedgerEntryID()
	s.Require().NoError(s.store.AttachSideEffects(ctx, e.ID, entryID, id.NotificationID{}))

	events, err := s.store.ListBySubject(ctx, s.subjectID, regionA, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(entryID, events[0].LedgerEntryID)
	s.True(events[0].NotificationID.IsNil(), "nil ids never overwrite")

	s.Error(s.store.AttachSideEffects(ctx, id.NewEventID(), entryID, id.NotificationID{}))
}
