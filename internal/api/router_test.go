package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"terrain-profile-service/internal/adapters/elevation"
	"terrain-profile-service/internal/api/dto"
	"terrain-profile-service/internal/api/handlers"
	"terrain-profile-service/internal/domain"
	"terrain-profile-service/internal/services"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shareBase = "http://example.test/profiler"

var (
	tx = domain.Coordinate{Lat: 51.4917, Lon: -0.0127}
	rx = domain.Coordinate{Lat: 52.4777, Lon: -1.8931}

	sharedQuery = "txLng=-0.0127&txLat=51.4917&rxLng=-1.8931&rxLat=52.4777"
)

type memoryStore struct {
	mu    sync.Mutex
	pairs map[string]domain.CoordinatePair
}

func (s *memoryStore) Load(ctx context.Context, visitor string) (domain.CoordinatePair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pairs[visitor]
	return p, ok, nil
}

func (s *memoryStore) Save(ctx context.Context, visitor string, pair domain.CoordinatePair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[visitor] = pair
	return nil
}

type testEnv struct {
	router   http.Handler
	provider *elevation.MockElevationProvider
	store    *memoryStore
}

func newTestEnv() *testEnv {
	result := &domain.ProfileResult{
		Samples: []domain.ElevationSample{
			{Coordinate: tx, GroundTrueHeight: 262, ClutterHeight: 6},
			{Coordinate: domain.Coordinate{Lat: 51.98, Lon: -0.95}, GroundTrueHeight: 207},
			{Coordinate: rx, GroundTrueHeight: 193},
		},
		Summary: domain.ProfileSummary{DistanceKm: 161.802, PointCount: 3},
	}

	env := &testEnv{
		provider: elevation.NewMockElevationProvider([]elevation.MockProfile{{Tx: tx, Rx: rx, Result: result}}),
		store:    &memoryStore{pairs: map[string]domain.CoordinatePair{}},
	}
	env.router = NewRouter(Deps{
		Provider:     env.provider,
		Store:        env.store,
		ShareBaseURL: shareBase,
		ChartWidth:   640,
		ChartHeight:  240,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, r)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) dto.ViewResponse {
	t.Helper()

	var v dto.ViewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func visitorCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == handlers.VisitorCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", handlers.VisitorCookie)
	return nil
}

func profileBody(tx, rx domain.Coordinate) dto.ProfileRequest {
	a, b := dto.FromCoordinate(tx), dto.FromCoordinate(rx)
	return dto.ProfileRequest{Tx: &a, Rx: &b}
}

func TestHealth(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = env.do(t, http.MethodPost, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestViewFreshVisitor(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	v := decodeView(t, rec)
	assert.Equal(t, "idle", v.Phase)
	assert.Equal(t, dto.FromCoordinate(services.DefaultPair.Tx), v.Tx)
	assert.Equal(t, dto.FromCoordinate(services.DefaultPair.Rx), v.Rx)
	assert.True(t, v.SubmitEnabled)
	assert.Nil(t, v.Chart)

	ck := visitorCookie(t, rec)
	assert.NotEmpty(t, ck.Value)
	assert.Equal(t, 3650*24*60*60, ck.MaxAge)
	assert.Zero(t, env.provider.Calls)
}

func TestSubmitPersistsAndReturnsShareLocation(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/profile", profileBody(tx, rx))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ck := visitorCookie(t, rec)

	v := decodeView(t, rec)
	assert.Equal(t, "rendered", v.Phase)
	assert.Equal(t, shareBase+"?"+sharedQuery, v.Location)
	assert.Empty(t, v.Notice)
	require.NotNil(t, v.Chart)
	assert.Equal(t, "Point To Point Profile (51.4917 -0.0127 to 52.4777 -1.8931)", v.Chart.Title)
	assert.Equal(t, "<-- Distance: 161.802km -->", v.Chart.DistanceLabel)
	assert.Equal(t, []float64{256, 207, 193}, v.Chart.Terrain.Y)
	assert.Equal(t, []int{0, 1, 2}, v.Chart.LineOfSight.X)

	assert.Equal(t, domain.CoordinatePair{Tx: tx, Rx: rx}, env.store.pairs[ck.Value])

	// A later visit by the same visitor starts from the stored pair.
	rec = env.do(t, http.MethodGet, "/api/view", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec)
	assert.Equal(t, "idle", v.Phase)
	assert.Equal(t, dto.FromCoordinate(tx), v.Tx)
	assert.Equal(t, dto.FromCoordinate(rx), v.Rx)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSubmitInvalidCoordinates(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/profile", profileBody(domain.Coordinate{Lat: 95, Lon: 0}, rx))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	v := decodeView(t, rec)
	assert.Equal(t, "idle", v.Phase)
	assert.True(t, strings.HasPrefix(v.Notice, "Error: "), v.Notice)
	assert.Zero(t, env.provider.Calls)
	assert.Empty(t, env.store.pairs)
}

func TestSubmitBadBody(t *testing.T) {
	env := newTestEnv()

	for _, body := range []string{`{`, `{"tx":{"lat":1,"lon":2}}`, `{"tx":{},"rx":{},"zoom":3}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := env.do(t, http.MethodGet, "/api/profile", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSubmitLookupFailure(t *testing.T) {
	env := newTestEnv()
	env.provider.Err = fmt.Errorf("%w: upstream down", domain.ErrLookupFailure)

	rec := env.do(t, http.MethodPost, "/api/profile", profileBody(tx, rx))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	v := decodeView(t, rec)
	assert.Equal(t, "idle", v.Phase)
	assert.Equal(t, services.FailureNotice, v.Notice)
	assert.Empty(t, v.Location)
	assert.Nil(t, v.Chart)
	assert.Empty(t, env.store.pairs)
}

func TestViewSharedLink(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/view?"+sharedQuery, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	v := decodeView(t, rec)
	assert.Equal(t, "rendered", v.Phase)
	assert.True(t, v.Shared)
	assert.Equal(t, shareBase+"?"+sharedQuery, v.Location)
	require.NotNil(t, v.Chart)
	assert.Empty(t, env.store.pairs)
}

func TestSharedChartImages(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/profile/chart.png?"+sharedQuery, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = env.do(t, http.MethodGet, "/api/profile/chart.svg?"+sharedQuery, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	assert.Empty(t, env.store.pairs)
}

func TestSharedChartErrors(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/profile/chart.png", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/profile/chart.png?txLng=abc&txLat=1&rxLng=1&rxLat=1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.provider.Err = fmt.Errorf("%w: upstream down", domain.ErrLookupFailure)
	rec = env.do(t, http.MethodGet, "/api/profile/chart.png?"+sharedQuery, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), services.FailureNotice)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv()
	env.do(t, http.MethodGet, "/api/view", nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "profile_views_total")
}
