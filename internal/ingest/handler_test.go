package ingest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"roadwatch/internal/fence"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
	"roadwatch/pkg/testutil"
)

type IngestSuite struct {
	suite.Suite
	engine *engineRecorder
	router chi.Router

	guardianID id.GuardianID
	subjectID  id.SubjectID
}

func TestIngestSuite(t *testing.T) {
	suite.Run(t, new(IngestSuite))
}

func (s *IngestSuite) SetupTest() {
	s.engine = &engineRecorder{}
	s.guardianID = id.NewGuardianID()
	s.subjectID = id.NewSubjectID()

	h := New(s.engine, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *IngestSuite) authed(req *http.Request) *http.Request {
	return testutil.WithDeviceAuth(req, s.guardianID.String(), s.subjectID.String())
}

func (s *IngestSuite) TestSingleLocation() {
	s.Run("valid sample is accepted", func() {
		body := map[string]any{"lat": 40.0, "lon": -75.0, "address": "123 Main St"}
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/ingest/location", body))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
		samples := s.engine.received()
		s.Require().Len(samples, 1)
		s.Equal(s.subjectID, samples[0].SubjectID)
		s.Equal(s.guardianID, samples[0].GuardianID)
		s.Equal("123 Main St", samples[0].Address)
	})

	s.Run("latitude out of range rejected", func() {
		before := len(s.engine.received())
		body := map[string]any{"lat": 91.0, "lon": -75.0}
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/ingest/location", body))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
		s.Len(s.engine.received(), before, "rejected sample must not reach the engine")
	})

	s.Run("longitude out of range rejected", func() {
		body := map[string]any{"lat": 40.0, "lon": 181.0}
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/ingest/location", body))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.Run("missing device context returns unauthorized", func() {
		body := map[string]any{"lat": 40.0, "lon": -75.0}
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/ingest/location", body)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("engine unavailability surfaces to the device", func() {
		s.engine.err = dErrors.New(dErrors.CodeUnavailable, "region load failed")
		defer func() { s.engine.err = nil }()

		body := map[string]any{"lat": 40.0, "lon": -75.0}
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/ingest/location", body))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	})
}

func (s *IngestSuite) TestBatchLocations() {
	s.Run("batch is forwarded in order", func() {
		body := map[string]any{"locations": []map[string]any{
			{"lat": 40.0, "lon": -75.0},
			{"lat": 40.01, "lon": -75.0},
		}}
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/ingest/locations", body))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
		samples := s.engine.received()
		s.Require().Len(samples, 2)
		s.Equal(40.0, samples[0].Lat)
		s.Equal(40.01, samples[1].Lat)
	})

	s.Run("empty batch rejected", func() {
		body := map[string]any{"locations": []map[string]any{}}
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/ingest/locations", body))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.Run("one bad sample rejects the whole batch", func() {
		before := len(s.engine.received())
		body := map[string]any{"locations": []map[string]any{
			{"lat": 40.0, "lon": -75.0},
			{"lat": 95.0, "lon": -75.0},
		}}
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/ingest/locations", body))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		s.Len(s.engine.received(), before, "no partial batch delivery")
	})
}

// engineRecorder captures samples instead of evaluating them.
type engineRecorder struct {
	mu      sync.Mutex
	samples []fence.Sample
	err     error
}

func (e *engineRecorder) ProcessSample(_ context.Context, sample fence.Sample) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.samples = append(e.samples, sample)
	return nil
}

func (e *engineRecorder) ProcessBatch(ctx context.Context, samples []fence.Sample) error {
	for _, sample := range samples {
		if err := e.ProcessSample(ctx, sample); err != nil {
			return err
		}
	}
	return nil
}

func (e *engineRecorder) received() []fence.Sample {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]fence.Sample, len(e.samples))
	copy(out, e.samples)
	return out
}
