package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"roadwatch/internal/region"
	"roadwatch/internal/region/handler/mocks"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
	"roadwatch/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router

	guardianID id.GuardianID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.guardianID = id.NewGuardianID()

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) sampleRegion() *region.Region {
	return &region.Region{
		ID:           id.NewRegionID(),
		GuardianID:   s.guardianID,
		Name:         "School",
		Lat:          40.0,
		Lon:          -75.0,
		RadiusMeters: 300,
		Category:     region.CategorySafe,
		BonusCents:   500,
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func (s *HandlerSuite) TestCreate() {
	s.Run("valid request creates region", func() {
		created := s.sampleRegion()
		s.service.EXPECT().
			Create(gomock.Any(), s.guardianID, gomock.Any()).
			Return(created, nil)

		body := map[string]any{
			"name":          "School",
			"lat":           40.0,
			"lon":           -75.0,
			"radius_meters": 300,
			"category":      "safe",
			"bonus_cents":   500,
		}
		req := testutil.WithGuardianID(
			testutil.NewJSONRequest(s.T(), http.MethodPost, "/guardian/regions/", body),
			s.guardianID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal("School", (*resp)["name"])
		s.Equal("safe", (*resp)["category"])
	})

	s.Run("invalid category rejected before service call", func() {
		body := map[string]any{
			"name":          "School",
			"lat":           40.0,
			"lon":           -75.0,
			"radius_meters": 300,
			"category":      "bogus",
		}
		req := testutil.WithGuardianID(
			testutil.NewJSONRequest(s.T(), http.MethodPost, "/guardian/regions/", body),
			s.guardianID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.Run("malformed body returns bad request", func() {
		req := testutil.WithGuardianID(
			testutil.NewRequest(s.T(), http.MethodPost, "/guardian/regions/"),
			s.guardianID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("missing guardian context returns unauthorized", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/guardian/regions/", map[string]any{})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

func (s *HandlerSuite) TestGet() {
	s.Run("existing region returned", func() {
		r := s.sampleRegion()
		s.service.EXPECT().
			Get(gomock.Any(), s.guardianID, r.ID).
			Return(r, nil)

		req := testutil.WithGuardianID(
			testutil.NewRequest(s.T(), http.MethodGet, "/guardian/regions/"+r.ID.String()),
			s.guardianID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("unknown region returns not found", func() {
		regionID := id.NewRegionID()
		s.service.EXPECT().
			Get(gomock.Any(), s.guardianID, regionID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "region not found"))

		req := testutil.WithGuardianID(
			testutil.NewRequest(s.T(), http.MethodGet, "/guardian/regions/"+regionID.String()),
			s.guardianID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("malformed id rejected", func() {
		req := testutil.WithGuardianID(
			testutil.NewRequest(s.T(), http.MethodGet, "/guardian/regions/not-a-uuid"),
			s.guardianID.String())
		rr := testutil.DoRequest(s.router, req)

		s.NotEqual(http.StatusOK, rr.Code)
	})
}

func (s *HandlerSuite) TestUpdate() {
	r := s.sampleRegion()
	s.service.EXPECT().
		Update(gomock.Any(), s.guardianID, gomock.Any()).
		Return(r, nil)

	body := map[string]any{
		"name":          "School",
		"lat":           40.0,
		"lon":           -75.0,
		"radius_meters": 300,
		"category":      "safe",
	}
	req := testutil.WithGuardianID(
		testutil.NewJSONRequest(s.T(), http.MethodPut, "/guardian/regions/"+r.ID.String(), body),
		s.guardianID.String())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *HandlerSuite) TestDelete() {
	s.Run("existing region deleted", func() {
		regionID := id.NewRegionID()
		s.service.EXPECT().
			Delete(gomock.Any(), s.guardianID, regionID).
			Return(nil)

		req := testutil.WithGuardianID(
			testutil.NewRequest(s.T(), http.MethodDelete, "/guardian/regions/"+regionID.String()),
			s.guardianID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("unknown region returns not found", func() {
		regionID := id.NewRegionID()
		s.service.EXPECT().
			Delete(gomock.Any(), s.guardianID, regionID).
			Return(dErrors.New(dErrors.CodeNotFound, "region not found"))

		req := testutil.WithGuardianID(
			testutil.NewRequest(s.T(), http.MethodDelete, "/guardian/regions/"+regionID.String()),
			s.guardianID.String())
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}

func (s *HandlerSuite) TestList() {
	s.service.EXPECT().
		List(gomock.Any(), s.guardianID).
		Return([]*region.Region{s.sampleRegion(), s.sampleRegion()}, nil)

	req := testutil.WithGuardianID(
		testutil.NewRequest(s.T(), http.MethodGet, "/guardian/regions/"),
		s.guardianID.String())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[map[string][]map[string]any](s.T(), rr)
	s.Len((*resp)["regions"], 2)
}
