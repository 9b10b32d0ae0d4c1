//go:build integration

package region

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/platform/sentinel"
	"roadwatch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgresStore(s.pg.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.pg.DB.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) newRegion(guardianID id.GuardianID) *Region {
	now := time.Now().UTC().Truncate(time.Microsecond)
	start, end := 9*60, 18*60
	return &Region{
		ID:           id.NewRegionID(),
		GuardianID:   guardianID,
		Name:         "School",
		Lat:          40.0,
		Lon:          -75.0,
		RadiusMeters: 300,
		Category:     CategoryCurfew,
		Window: &TimeWindow{
			AllowedDays: []time.Weekday{time.Monday, time.Friday},
			StartMinute: &start,
			EndMinute:   &end,
		},
		BonusCents: 500,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	guardianID := id.NewGuardianID()
	r := s.newRegion(guardianID)

	s.Require().NoError(s.store.Create(ctx, r))

	got, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.Name, got.Name)
	s.Equal(r.Category, got.Category)
	s.Require().NotNil(got.Window)
	s.Equal(r.Window.AllowedDays, got.Window.AllowedDays)
	s.Equal(*r.Window.StartMinute, *got.Window.StartMinute)
	s.Equal(*r.Window.EndMinute, *got.Window.EndMinute)
}

func (s *PostgresStoreSuite) TestNilWindowRoundTrip() {
	ctx := context.Background()
	r := s.newRegion(id.NewGuardianID())
	r.Category = CategorySafe
	r.Window = nil

	s.Require().NoError(s.store.Create(ctx, r))

	got, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Nil(got.Window)
}

func (s *PostgresStoreSuite) TestUpdateScopedToGuardian() {
	ctx := context.Background()
	guardianID := id.NewGuardianID()
	r := s.newRegion(guardianID)
	s.Require().NoError(s.store.Create(ctx, r))

	r.Name = "Renamed"
	r.GuardianID = id.NewGuardianID()
	s.ErrorIs(s.store.Update(ctx, r), sentinel.ErrNotFound)

	r.GuardianID = guardianID
	s.Require().NoError(s.store.Update(ctx, r))
	got, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Name)
}

func (s *PostgresStoreSuite) TestListByGuardianActiveOnly() {
	ctx := context.Background()
	guardianID := id.NewGuardianID()

	active := s.newRegion(guardianID)
	s.Require().NoError(s.store.Create(ctx, active))

	inactive := s.newRegion(guardianID)
	inactive.Active = false
	s.Require().NoError(s.store.Create(ctx, inactive))

	other := s.newRegion(id.NewGuardianID())
	s.Require().NoError(s.store.Create(ctx, other))

	all, err := s.store.ListByGuardian(ctx, guardianID, false)
	s.Require().NoError(err)
	s.Len(all, 2)

	activeOnly, err := s.store.ListByGuardian(ctx, guardianID, true)
	s.Require().NoError(err)
	s.Require().Len(activeOnly, 1)
	s.Equal(active.ID, activeOnly[0].ID)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	guardianID := id.NewGuardianID()
	r := s.newRegion(guardianID)
	s.Require().NoError(s.store.Create(ctx, r))

	s.ErrorIs(s.store.Delete(ctx, id.NewGuardianID(), r.ID), sentinel.ErrNotFound)
	s.Require().NoError(s.store.Delete(ctx, guardianID, r.ID))

	_, err := s.store.FindByID(ctx, r.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
