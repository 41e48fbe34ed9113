package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"terrain-profile-service/internal/adapters/chart"
	"terrain-profile-service/internal/api/dto"
	"terrain-profile-service/internal/domain"
	"terrain-profile-service/internal/platform/metrics"
	"terrain-profile-service/internal/platform/obs"
	"terrain-profile-service/internal/ports"
	"terrain-profile-service/internal/services"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	VisitorCookie = "profiler_visitor"
	visitorMaxAge = 3650 * 24 * time.Hour
)

type ProfileHandler struct {
	Provider     ports.ElevationProvider
	Store        ports.CoordinateStore
	ShareBaseURL string
	ChartWidth   int
	ChartHeight  int
}

// View loads the profile view for the visitor. A share query in the URL is
// profiled immediately; otherwise the stored or default form is returned.
func (h *ProfileHandler) View(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	visitor := visitorID(w, r)
	c, err := h.coordinator(r.Context(), visitor, seriesOnly{})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusOK
	if err := c.Init(r.Context(), h.location(r)); err != nil {
		status = statusFor(err)
	}
	h.writeView(w, r, status, c.State())
}

// Submit profiles the posted coordinates as a manual submit: the pair is
// stored for the visitor and the share location is returned.
func (h *ProfileHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.ProfileRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}
	if req.Tx == nil || req.Rx == nil {
		writeError(w, r, http.StatusBadRequest, "tx and rx are required")
		return
	}

	visitor := visitorID(w, r)
	c, err := h.coordinator(r.Context(), visitor, seriesOnly{})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if err := c.Init(r.Context(), ""); err != nil {
		h.writeView(w, r, statusFor(err), c.State())
		return
	}

	pair := domain.CoordinatePair{Tx: req.Tx.ToDomain(), Rx: req.Rx.ToDomain()}
	if err := c.Dispatch(r.Context(), services.FormEdited{Pair: pair}); err != nil {
		st := c.State()
		st.Form = pair
		st.Notice = "Error: " + err.Error()
		h.writeView(w, r, statusFor(err), st)
		return
	}

	status := http.StatusOK
	if err := c.Submit(r.Context()); err != nil {
		status = statusFor(err)
	}
	h.writeView(w, r, status, c.State())
}

// Chart renders the profile named by the share query as an image.
func (h *ProfileHandler) Chart(format chart.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if _, err := services.NewRequestBuilder(services.ShareScheme).Decode(r.URL.RawQuery); err != nil {
			writeError(w, r, statusFor(err), err.Error())
			return
		}

		var buf bytes.Buffer
		renderer := chart.NewRenderer(&buf, format, h.ChartWidth, h.ChartHeight)
		c, err := h.coordinator(r.Context(), "", renderer)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}

		if err := c.Init(r.Context(), h.location(r)); err != nil {
			metrics.RecordView(c.State().Phase.String())
			writeError(w, r, statusFor(err), services.FailureNotice)
			return
		}
		metrics.RecordView(c.State().Phase.String())

		w.Header().Set("Content-Type", format.ContentType())
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			logrus.WithField("req_id", obs.RequestID(r.Context())).WithError(err).Warn("write chart failed")
		}
	}
}

func (h *ProfileHandler) coordinator(
	ctx context.Context,
	visitor string,
	renderer ports.ChartRenderer,
) (*services.ViewCoordinator, error) {
	var store ports.CoordinateStore
	if visitor != "" {
		store = h.Store
	}

	c, err := services.NewViewCoordinator(services.CoordinatorConfig{
		Provider:     h.Provider,
		Renderer:     renderer,
		Store:        store,
		ShareBaseURL: h.ShareBaseURL,
		Visitor:      visitor,
	})
	if err != nil {
		logrus.WithField("req_id", obs.RequestID(ctx)).WithError(err).Error("build view coordinator")
		return nil, err
	}
	return c, nil
}

// location rebuilds the page location the request stands for.
func (h *ProfileHandler) location(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return h.ShareBaseURL
	}
	return h.ShareBaseURL + "?" + r.URL.RawQuery
}

func (h *ProfileHandler) writeView(w http.ResponseWriter, r *http.Request, status int, st services.ViewState) {
	metrics.RecordView(st.Phase.String())
	writeJSON(w, r, status, dto.ViewResponse{
		Phase:         st.Phase.String(),
		Tx:            dto.FromCoordinate(st.Form.Tx),
		Rx:            dto.FromCoordinate(st.Form.Rx),
		Busy:          st.Busy,
		SubmitEnabled: st.SubmitEnabled,
		Shared:        st.Shared,
		Location:      st.Location,
		Notice:        st.Notice,
		Chart:         dto.FromChart(st.Chart),
	})
}

// visitorID returns the visitor cookie, issuing a new one when absent.
func visitorID(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(VisitorCookie); err == nil {
		if v := strings.TrimSpace(ck.Value); v != "" {
			return v
		}
	} else if !errors.Is(err, http.ErrNoCookie) {
		logrus.WithError(err).Debug("unreadable visitor cookie")
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// seriesOnly satisfies the renderer port for JSON views, where the chart
// series are returned in the response body instead of drawn.
type seriesOnly struct{}

func (seriesOnly) RenderProfile(ctx context.Context, _ domain.ProfileChart) error {
	return ctx.Err()
}
