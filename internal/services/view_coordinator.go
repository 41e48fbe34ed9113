package services

import (
	"context"
	"errors"
	"fmt"
	"terrain-profile-service/internal/domain"
	"terrain-profile-service/internal/ports"

	"github.com/sirupsen/logrus"
)

// Phase of the profile view.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRequesting
	PhaseRendered
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRequesting:
		return "requesting"
	case PhaseRendered:
		return "rendered"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Shown to the user whenever a profile cannot be produced.
const FailureNotice = "Error: there was a problem generating the profile"

var ErrRequestInFlight = errors.New("profile request already in flight")

// Coordinates shown on a fresh visit when nothing is stored.
var DefaultPair = domain.CoordinatePair{
	Tx: domain.Coordinate{Lat: 51.75, Lon: 0.47},
	Rx: domain.Coordinate{Lat: 51.4728, Lon: 0.1064},
}

// Event drives a ViewCoordinator transition.
type Event interface{ isEvent() }

type SubmitRequested struct{ Manual bool }

type LookupSucceeded struct{ Result *domain.ProfileResult }

type LookupFailed struct{ Err error }

type MarkerDragged struct {
	Endpoint   domain.Endpoint
	Coordinate domain.Coordinate
}

type FormEdited struct{ Pair domain.CoordinatePair }

func (SubmitRequested) isEvent() {}
func (LookupSucceeded) isEvent() {}
func (LookupFailed) isEvent()    {}
func (MarkerDragged) isEvent()   {}
func (FormEdited) isEvent()      {}

// ViewState is the only mutable state of a profile view. The coordinator
// owns it; collaborators receive copies or the pair they need.
type ViewState struct {
	Phase         Phase
	Form          domain.CoordinatePair
	Busy          bool
	SubmitEnabled bool
	// Set when the coordinates came from a shared link.
	Shared bool
	// Visible location; rewritten to the share URL after a manual submit.
	Location string
	Notice   string
	Chart    *domain.ProfileChart
}

type CoordinatorConfig struct {
	Provider ports.ElevationProvider
	Renderer ports.ChartRenderer
	// Optional collaborators.
	Store   ports.CoordinateStore
	Markers ports.MapWidget

	// Builder for the shareable location; ShareScheme when nil.
	Share        *RequestBuilder
	ShareBaseURL string
	Defaults     *domain.CoordinatePair
	Visitor      string

	// Called on every phase change, including the transient Failed phase.
	OnTransition func(from, to Phase)
	Logger       *logrus.Logger
}

// ViewCoordinator runs the profile view state machine:
// Idle -> Requesting -> Rendered, and Idle -> Requesting -> Failed -> Idle.
// It is event-driven and single-threaded; it is not safe for concurrent use.
type ViewCoordinator struct {
	cfg      CoordinatorConfig
	share    *RequestBuilder
	defaults domain.CoordinatePair
	log      *logrus.Entry

	state    ViewState
	inflight *inflightRequest
}

type inflightRequest struct {
	pair   domain.CoordinatePair
	manual bool
}

func NewViewCoordinator(cfg CoordinatorConfig) (*ViewCoordinator, error) {
	if cfg.Provider == nil {
		return nil, errors.New("view coordinator: elevation provider is nil")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("view coordinator: chart renderer is nil")
	}

	share := cfg.Share
	if share == nil {
		share = NewRequestBuilder(ShareScheme)
	}

	defaults := DefaultPair
	if cfg.Defaults != nil {
		defaults = *cfg.Defaults
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &ViewCoordinator{
		cfg:      cfg,
		share:    share,
		defaults: defaults,
		log:      logger.WithField("visitor", cfg.Visitor),
		state: ViewState{
			Phase:         PhaseIdle,
			Form:          defaults,
			SubmitEnabled: true,
		},
	}, nil
}

// State returns a copy of the current view state.
func (c *ViewCoordinator) State() ViewState { return c.state }

// Init loads the view for a location. A location carrying shareable state is
// profiled immediately and never touches the store; otherwise the stored
// (or default) coordinates are shown and the view waits for a submit.
func (c *ViewCoordinator) Init(ctx context.Context, location string) error {
	c.state.Location = location

	pair, err := c.share.Decode(location)
	switch {
	case err == nil:
		c.state.Shared = true
		c.state.Form = pair
		c.showMarkers()
		return c.run(ctx, false)
	case errors.Is(err, ErrNotPresent):
	default:
		c.log.WithError(err).Warn("ignoring malformed shared location")
	}

	c.state.Form = c.loadStored(ctx)
	c.showMarkers()
	return nil
}

// Submit profiles the coordinates currently in the form.
func (c *ViewCoordinator) Submit(ctx context.Context) error {
	return c.run(ctx, true)
}

func (c *ViewCoordinator) run(ctx context.Context, manual bool) error {
	if err := c.Dispatch(ctx, SubmitRequested{Manual: manual}); err != nil {
		return err
	}

	pair := c.inflight.pair
	result, err := c.cfg.Provider.GetProfile(ctx, pair.Tx, pair.Rx)
	if err != nil {
		return c.Dispatch(ctx, LookupFailed{Err: err})
	}
	return c.Dispatch(ctx, LookupSucceeded{Result: result})
}

// Dispatch applies one event. Failure events return the failure after the
// view has been returned to Idle.
func (c *ViewCoordinator) Dispatch(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case SubmitRequested:
		return c.onSubmit(e)
	case LookupSucceeded:
		return c.onSuccess(ctx, e)
	case LookupFailed:
		return c.onFailure(e.Err)
	case MarkerDragged:
		return c.onMarkerDragged(e)
	case FormEdited:
		return c.onFormEdited(e)
	default:
		return fmt.Errorf("view coordinator: unknown event %T", ev)
	}
}

func (c *ViewCoordinator) onSubmit(e SubmitRequested) error {
	if c.state.Phase == PhaseRequesting || !c.state.SubmitEnabled {
		return ErrRequestInFlight
	}

	// Reject bad input before any request is made.
	if err := c.state.Form.Validate(); err != nil {
		c.state.Notice = "Error: " + err.Error()
		return fmt.Errorf("submit profile: %w", err)
	}

	c.inflight = &inflightRequest{pair: c.state.Form, manual: e.Manual}
	c.state.Notice = ""
	c.state.Busy = true
	c.state.SubmitEnabled = false
	c.transition(PhaseRequesting)
	return nil
}

func (c *ViewCoordinator) onSuccess(ctx context.Context, e LookupSucceeded) error {
	if c.state.Phase != PhaseRequesting || c.inflight == nil {
		return errors.New("view coordinator: lookup result without a request in flight")
	}

	chart, err := TransformProfile(e.Result)
	if err != nil {
		return c.onFailure(err)
	}
	if err := c.cfg.Renderer.RenderProfile(ctx, chart); err != nil {
		return c.onFailure(fmt.Errorf("render chart: %w", err))
	}

	req := c.inflight
	c.inflight = nil
	c.state.Chart = &chart
	c.transition(PhaseRendered)

	if req.manual {
		c.persist(ctx, req.pair)
		q, err := c.share.Encode(req.pair.Tx, req.pair.Rx)
		if err == nil {
			c.state.Location = c.shareURL(q)
		}
	}

	c.state.Busy = false
	c.state.SubmitEnabled = true
	return nil
}

func (c *ViewCoordinator) onFailure(cause error) error {
	if c.state.Phase != PhaseRequesting {
		return fmt.Errorf("view coordinator: failure without a request in flight: %w", cause)
	}

	c.inflight = nil
	c.transition(PhaseFailed)
	c.log.WithError(cause).Warn("profile request failed")
	c.state.Notice = FailureNotice
	c.state.Busy = false
	c.state.SubmitEnabled = true
	c.transition(PhaseIdle)

	return fmt.Errorf("profile request: %w", cause)
}

func (c *ViewCoordinator) onMarkerDragged(e MarkerDragged) error {
	coord := e.Coordinate.Round(coordinatePrecision)
	if err := coord.Validate(); err != nil {
		return fmt.Errorf("marker %s: %w", e.Endpoint, err)
	}
	c.state.Form = c.state.Form.With(e.Endpoint, coord)
	return nil
}

func (c *ViewCoordinator) onFormEdited(e FormEdited) error {
	if err := e.Pair.Validate(); err != nil {
		return fmt.Errorf("edit form: %w", err)
	}
	c.state.Form = e.Pair
	c.showMarkers()
	return nil
}

func (c *ViewCoordinator) transition(to Phase) {
	from := c.state.Phase
	c.state.Phase = to
	c.log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Debug("view transition")
	if c.cfg.OnTransition != nil {
		c.cfg.OnTransition(from, to)
	}
}

func (c *ViewCoordinator) showMarkers() {
	if c.cfg.Markers != nil {
		c.cfg.Markers.ShowMarkers(c.state.Form)
	}
}

func (c *ViewCoordinator) loadStored(ctx context.Context) domain.CoordinatePair {
	if c.cfg.Store == nil {
		return c.defaults
	}

	pair, ok, err := c.cfg.Store.Load(ctx, c.cfg.Visitor)
	if err != nil {
		c.log.WithError(err).Warn("load stored coordinates failed, using defaults")
		return c.defaults
	}
	if !ok || pair.Validate() != nil {
		return c.defaults
	}
	return pair
}

func (c *ViewCoordinator) persist(ctx context.Context, pair domain.CoordinatePair) {
	if c.cfg.Store == nil {
		return
	}
	if err := c.cfg.Store.Save(ctx, c.cfg.Visitor, pair); err != nil {
		c.log.WithError(err).Warn("store coordinates failed")
	}
}

func (c *ViewCoordinator) shareURL(query string) string {
	return c.cfg.ShareBaseURL + "?" + query
}
