package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"terrain-profile-service/internal/adapters/elevation"
	"terrain-profile-service/internal/domain"
	"terrain-profile-service/internal/services"
	"testing"
)

const shareBase = "http://example.test/profiler"

var (
	tx = domain.Coordinate{Lat: 51.4917, Lon: -0.0127}
	rx = domain.Coordinate{Lat: 52.4777, Lon: -1.8931}

	sharedQuery = "txLng=-0.0127&txLat=51.4917&rxLng=-1.8931&rxLat=52.4777"
)

type memoryStore struct {
	pairs map[string]domain.CoordinatePair
	loads int
	saves int
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{pairs: map[string]domain.CoordinatePair{}}
}

func (s *memoryStore) Load(ctx context.Context, visitor string) (domain.CoordinatePair, bool, error) {
	s.loads++
	if s.err != nil {
		return domain.CoordinatePair{}, false, s.err
	}
	p, ok := s.pairs[visitor]
	return p, ok, nil
}

func (s *memoryStore) Save(ctx context.Context, visitor string, pair domain.CoordinatePair) error {
	s.saves++
	if s.err != nil {
		return s.err
	}
	s.pairs[visitor] = pair
	return nil
}

type recordingRenderer struct {
	charts []domain.ProfileChart
	err    error
}

func (r *recordingRenderer) RenderProfile(ctx context.Context, c domain.ProfileChart) error {
	if r.err != nil {
		return r.err
	}
	r.charts = append(r.charts, c)
	return nil
}

type markerRecorder struct {
	shown []domain.CoordinatePair
}

func (m *markerRecorder) ShowMarkers(pair domain.CoordinatePair) {
	m.shown = append(m.shown, pair)
}

type fixture struct {
	provider *elevation.MockElevationProvider
	renderer *recordingRenderer
	store    *memoryStore
	markers  *markerRecorder
	phases   []string
	coord    *services.ViewCoordinator
}

func newFixture(t *testing.T, defaults *domain.CoordinatePair) *fixture {
	t.Helper()

	f := &fixture{
		provider: elevation.NewMockElevationProvider([]elevation.MockProfile{
			{Tx: tx, Rx: rx, Result: profile()},
		}),
		renderer: &recordingRenderer{},
		store:    newMemoryStore(),
		markers:  &markerRecorder{},
	}

	coord, err := services.NewViewCoordinator(services.CoordinatorConfig{
		Provider:     f.provider,
		Renderer:     f.renderer,
		Store:        f.store,
		Markers:      f.markers,
		ShareBaseURL: shareBase,
		Defaults:     defaults,
		Visitor:      "visitor-1",
		OnTransition: func(from, to services.Phase) {
			f.phases = append(f.phases, from.String()+">"+to.String())
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.coord = coord
	return f
}

func profile() *domain.ProfileResult {
	heights := []float64{256, 224, 207, 204, 193}
	samples := make([]domain.ElevationSample, len(heights))
	for i, h := range heights {
		samples[i] = domain.ElevationSample{
			Coordinate:       domain.Coordinate{Lat: tx.Lat + float64(i)*0.25, Lon: tx.Lon - float64(i)*0.5},
			GroundTrueHeight: h,
		}
	}
	samples[0].Coordinate = tx
	samples[len(samples)-1].Coordinate = rx

	return &domain.ProfileResult{
		Samples: samples,
		Summary: domain.ProfileSummary{DistanceKm: 161.802},
	}
}

func TestNewViewCoordinatorRequiresCollaborators(t *testing.T) {
	if _, err := services.NewViewCoordinator(services.CoordinatorConfig{Renderer: &recordingRenderer{}}); err == nil {
		t.Fatal("expected error without provider")
	}
	if _, err := services.NewViewCoordinator(services.CoordinatorConfig{Provider: elevation.NewMockElevationProvider(nil)}); err == nil {
		t.Fatal("expected error without renderer")
	}
}

func TestViewCoordinatorFreshVisitUsesDefaults(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if err := f.coord.Init(ctx, shareBase); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := f.coord.State()
	if st.Phase != services.PhaseIdle {
		t.Fatalf("got phase %v, want idle", st.Phase)
	}
	if st.Form != services.DefaultPair {
		t.Fatalf("got form %v, want defaults %v", st.Form, services.DefaultPair)
	}
	if st.Shared || !st.SubmitEnabled || st.Busy {
		t.Fatalf("got state %+v", st)
	}
	if f.provider.Calls != 0 {
		t.Fatalf("got %d lookups, want 0", f.provider.Calls)
	}
	if len(f.markers.shown) != 1 || f.markers.shown[0] != services.DefaultPair {
		t.Fatalf("got markers %v", f.markers.shown)
	}
}

func TestViewCoordinatorLoadsStoredPair(t *testing.T) {
	f := newFixture(t, nil)
	stored := domain.CoordinatePair{Tx: rx, Rx: tx}
	f.store.pairs["visitor-1"] = stored

	if err := f.coord.Init(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.coord.State().Form; got != stored {
		t.Fatalf("got form %v, want %v", got, stored)
	}
}

func TestViewCoordinatorStoreErrorFallsBackToDefaults(t *testing.T) {
	f := newFixture(t, nil)
	f.store.err = errors.New("disk on fire")

	if err := f.coord.Init(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.coord.State().Form; got != services.DefaultPair {
		t.Fatalf("got form %v, want defaults", got)
	}
}

func TestViewCoordinatorManualSubmit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if err := f.coord.Init(ctx, shareBase); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := f.coord.Dispatch(ctx, services.FormEdited{Pair: domain.CoordinatePair{Tx: tx, Rx: rx}}); err != nil {
		t.Fatalf("edit form: %v", err)
	}
	if err := f.coord.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	st := f.coord.State()
	if st.Phase != services.PhaseRendered {
		t.Fatalf("got phase %v, want rendered", st.Phase)
	}
	if st.Busy || !st.SubmitEnabled || st.Notice != "" {
		t.Fatalf("got state %+v", st)
	}
	if want := shareBase + "?" + sharedQuery; st.Location != want {
		t.Fatalf("got location %q, want %q", st.Location, want)
	}
	if got := f.store.pairs["visitor-1"]; got != (domain.CoordinatePair{Tx: tx, Rx: rx}) {
		t.Fatalf("got stored pair %v", got)
	}

	if len(f.renderer.charts) != 1 {
		t.Fatalf("got %d rendered charts, want 1", len(f.renderer.charts))
	}
	c := f.renderer.charts[0]
	if c.Title != "Point To Point Profile (51.4917 -0.0127 to 52.4777 -1.8931)" {
		t.Fatalf("got title %q", c.Title)
	}
	if c.DistanceLabel != "<-- Distance: 161.802km -->" {
		t.Fatalf("got distance label %q", c.DistanceLabel)
	}
	if st.Chart == nil || st.Chart.Title != c.Title {
		t.Fatalf("got state chart %+v", st.Chart)
	}

	want := []string{"idle>requesting", "requesting>rendered"}
	if strings.Join(f.phases, ",") != strings.Join(want, ",") {
		t.Fatalf("got transitions %v, want %v", f.phases, want)
	}
}

func TestViewCoordinatorLookupFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.Err = fmt.Errorf("%w: upstream 500", domain.ErrLookupFailure)
	ctx := context.Background()

	if err := f.coord.Init(ctx, shareBase); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := f.coord.Dispatch(ctx, services.FormEdited{Pair: domain.CoordinatePair{Tx: tx, Rx: rx}}); err != nil {
		t.Fatalf("edit form: %v", err)
	}

	err := f.coord.Submit(ctx)
	if !errors.Is(err, domain.ErrLookupFailure) {
		t.Fatalf("got err %v, want ErrLookupFailure", err)
	}

	st := f.coord.State()
	if st.Phase != services.PhaseIdle {
		t.Fatalf("got phase %v, want idle", st.Phase)
	}
	if st.Notice != services.FailureNotice {
		t.Fatalf("got notice %q", st.Notice)
	}
	if st.Busy || !st.SubmitEnabled {
		t.Fatalf("got busy=%v submitEnabled=%v", st.Busy, st.SubmitEnabled)
	}
	if st.Location != shareBase {
		t.Fatalf("got location %q, want unchanged", st.Location)
	}
	if f.store.saves != 0 {
		t.Fatalf("got %d store saves, want 0", f.store.saves)
	}
	if st.Chart != nil {
		t.Fatalf("got chart %+v, want none", st.Chart)
	}

	want := []string{"idle>requesting", "requesting>failed", "failed>idle"}
	if strings.Join(f.phases, ",") != strings.Join(want, ",") {
		t.Fatalf("got transitions %v, want %v", f.phases, want)
	}
}

func TestViewCoordinatorRenderFailure(t *testing.T) {
	f := newFixture(t, &domain.CoordinatePair{Tx: tx, Rx: rx})
	f.renderer.err = errors.New("no canvas")

	err := f.coord.Submit(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	st := f.coord.State()
	if st.Phase != services.PhaseIdle || st.Notice != services.FailureNotice {
		t.Fatalf("got state %+v", st)
	}
	if f.store.saves != 0 {
		t.Fatalf("got %d store saves, want 0", f.store.saves)
	}
}

func TestViewCoordinatorSharedLocation(t *testing.T) {
	f := newFixture(t, nil)
	location := shareBase + "?" + sharedQuery

	if err := f.coord.Init(context.Background(), location); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := f.coord.State()
	if st.Phase != services.PhaseRendered || !st.Shared {
		t.Fatalf("got state %+v", st)
	}
	if st.Form != (domain.CoordinatePair{Tx: tx, Rx: rx}) {
		t.Fatalf("got form %v", st.Form)
	}
	if st.Location != location {
		t.Fatalf("got location %q, want %q", st.Location, location)
	}
	if f.store.loads != 0 || f.store.saves != 0 {
		t.Fatalf("store touched: loads=%d saves=%d", f.store.loads, f.store.saves)
	}
	if f.provider.Calls != 1 {
		t.Fatalf("got %d lookups, want 1", f.provider.Calls)
	}
}

func TestViewCoordinatorMalformedSharedLocation(t *testing.T) {
	f := newFixture(t, nil)

	err := f.coord.Init(context.Background(), shareBase+"?txLng=abc&txLat=51.4917")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := f.coord.State()
	if st.Phase != services.PhaseIdle || st.Shared {
		t.Fatalf("got state %+v", st)
	}
	if st.Form != services.DefaultPair {
		t.Fatalf("got form %v, want defaults", st.Form)
	}
	if f.provider.Calls != 0 {
		t.Fatalf("got %d lookups, want 0", f.provider.Calls)
	}
}

func TestViewCoordinatorRejectsSubmitWhileRequesting(t *testing.T) {
	f := newFixture(t, &domain.CoordinatePair{Tx: tx, Rx: rx})
	ctx := context.Background()

	if err := f.coord.Dispatch(ctx, services.SubmitRequested{Manual: true}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	st := f.coord.State()
	if st.Phase != services.PhaseRequesting || !st.Busy || st.SubmitEnabled {
		t.Fatalf("got state %+v", st)
	}

	if err := f.coord.Dispatch(ctx, services.SubmitRequested{Manual: true}); !errors.Is(err, services.ErrRequestInFlight) {
		t.Fatalf("got err %v, want ErrRequestInFlight", err)
	}
	if err := f.coord.Submit(ctx); !errors.Is(err, services.ErrRequestInFlight) {
		t.Fatalf("got err %v, want ErrRequestInFlight", err)
	}
	if f.provider.Calls != 0 {
		t.Fatalf("got %d lookups, want 0", f.provider.Calls)
	}

	if err := f.coord.Dispatch(ctx, services.LookupSucceeded{Result: profile()}); err != nil {
		t.Fatalf("lookup result: %v", err)
	}
	if got := f.coord.State().Phase; got != services.PhaseRendered {
		t.Fatalf("got phase %v, want rendered", got)
	}
}

func TestViewCoordinatorInvalidFormMakesNoRequest(t *testing.T) {
	bad := domain.CoordinatePair{Tx: domain.Coordinate{Lat: 123, Lon: 0}, Rx: rx}
	f := newFixture(t, &bad)

	err := f.coord.Submit(context.Background())
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("got err %v, want ErrInvalidCoordinate", err)
	}

	st := f.coord.State()
	if st.Phase != services.PhaseIdle {
		t.Fatalf("got phase %v, want idle", st.Phase)
	}
	if !strings.HasPrefix(st.Notice, "Error: ") {
		t.Fatalf("got notice %q", st.Notice)
	}
	if f.provider.Calls != 0 {
		t.Fatalf("got %d lookups, want 0", f.provider.Calls)
	}
}

func TestViewCoordinatorMarkerDragged(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.coord.Dispatch(ctx, services.MarkerDragged{
		Endpoint:   domain.Receiver,
		Coordinate: domain.Coordinate{Lat: 52.477749, Lon: -1.893149},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := f.coord.State()
	if st.Form.Rx != rx {
		t.Fatalf("got rx %v, want %v", st.Form.Rx, rx)
	}
	if st.Form.Tx != services.DefaultPair.Tx {
		t.Fatalf("got tx %v, want unchanged", st.Form.Tx)
	}

	err = f.coord.Dispatch(ctx, services.MarkerDragged{
		Endpoint:   domain.Transmitter,
		Coordinate: domain.Coordinate{Lat: 100, Lon: 0},
	})
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("got err %v, want ErrInvalidCoordinate", err)
	}
}

func TestViewCoordinatorFormEditedRejectsInvalid(t *testing.T) {
	f := newFixture(t, nil)

	err := f.coord.Dispatch(context.Background(), services.FormEdited{
		Pair: domain.CoordinatePair{Tx: tx, Rx: domain.Coordinate{Lat: 0, Lon: 999}},
	})
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("got err %v, want ErrInvalidCoordinate", err)
	}
	if got := f.coord.State().Form; got != services.DefaultPair {
		t.Fatalf("got form %v, want unchanged", got)
	}
	if len(f.markers.shown) != 0 {
		t.Fatalf("got markers %v, want none", f.markers.shown)
	}
}

func TestViewCoordinatorStrayLookupResult(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.coord.Dispatch(context.Background(), services.LookupSucceeded{Result: profile()}); err == nil {
		t.Fatal("expected error for result without request")
	}
	if got := f.coord.State().Phase; got != services.PhaseIdle {
		t.Fatalf("got phase %v, want idle", got)
	}
}
