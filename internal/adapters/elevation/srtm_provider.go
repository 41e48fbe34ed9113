package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"terrain-profile-service/internal/domain"
	"terrain-profile-service/internal/platform/metrics"
	"terrain-profile-service/internal/platform/obs"
	"terrain-profile-service/internal/ports"
	"terrain-profile-service/internal/services"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// SRTMProvider implements ElevationProvider against the SRTM profile CGI
// service (GET <base>?x1=..&y1=..&x2=..&y2=..).
//
// It coordinates:
//   - Canonical query encoding (shared with the cache key)
//   - Optional profile caching
//   - Coalescing of identical in-flight lookups
//
// The provider is safe for concurrent use.
type SRTMProvider struct {
	session *http.Client
	baseURL string
	query   *services.RequestBuilder
	cache   ports.ProfileCache
	group   singleflight.Group
}

func NewSRTMProvider(
	baseURL string,
	scheme services.FieldScheme,
	timeout time.Duration,
	cache ports.ProfileCache,
) (*SRTMProvider, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("SRTM base url is empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &SRTMProvider{
		session: &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "?"),
		query:   services.NewRequestBuilder(scheme),
		cache:   cache,
	}, nil
}

// GetProfile returns the elevation profile from tx to rx. Every upstream
// failure is wrapped with domain.ErrLookupFailure.
func (p *SRTMProvider) GetProfile(
	ctx context.Context,
	tx domain.Coordinate,
	rx domain.Coordinate,
) (_ *domain.ProfileResult, err error) {
	defer obs.Time(ctx, "srtm.GetProfile")(&err)

	req, err := p.query.Request(tx, rx)
	if err != nil {
		return nil, fmt.Errorf("get SRTM profile: %w", err)
	}
	q := req.Query

	// Check the profile cache before issuing an external call.
	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, q)
		if err != nil {
			logrus.WithError(err).WithField("key", q).Warn("profile cache read failed")
		} else if ok {
			metrics.RecordLookup(metrics.ResultCache)
			return cached, nil
		}
	}

	// The shared fetch outlives any single caller; the client timeout bounds it.
	ch := p.group.DoChan(q, func() (any, error) {
		return p.fetchAndStore(context.WithoutCancel(ctx), q)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		metrics.RecordLookup(metrics.ResultError)
		return nil, fmt.Errorf("%w: %w", domain.ErrLookupFailure, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		metrics.RecordLookup(metrics.ResultError)
		return nil, fmt.Errorf("%w: %w", domain.ErrLookupFailure, res.Err)
	}
	result := res.Val.(*domain.ProfileResult)

	metrics.RecordLookup(metrics.ResultOK)
	return result, nil
}

// fetchAndStore runs once per coalesced lookup and caches a successful result.
func (p *SRTMProvider) fetchAndStore(ctx context.Context, query string) (*domain.ProfileResult, error) {
	result, err := p.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, query, result); err != nil {
			logrus.WithError(err).WithField("key", query).Warn("profile cache write failed")
		}
	}
	return result, nil
}

func (p *SRTMProvider) fetch(ctx context.Context, query string) (*domain.ProfileResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveLookupSeconds(time.Since(start).Seconds()) }()

	req, err := p.newRequest(ctx, query)
	if err != nil {
		return nil, err
	}

	resp, err := p.do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded *srtmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}
	if decoded == nil {
		return nil, errors.New("profile response is null")
	}

	result, err := decoded.toDomain()
	if err != nil {
		return nil, fmt.Errorf("map profile response: %w", err)
	}

	return result, nil
}
