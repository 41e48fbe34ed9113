package elevation

import (
	"context"
	"fmt"
	"terrain-profile-service/internal/domain"
)

type MockProfile struct {
	Tx, Rx domain.Coordinate
	Result *domain.ProfileResult
}

// MockElevationProvider serves canned profiles keyed by coordinate pair.
// When Err is set every lookup fails with it.
type MockElevationProvider struct {
	m     map[domain.CoordinatePair]*domain.ProfileResult
	Err   error
	Calls int
}

func NewMockElevationProvider(profiles []MockProfile) *MockElevationProvider {
	m := make(map[domain.CoordinatePair]*domain.ProfileResult, len(profiles))
	for _, p := range profiles {
		m[domain.CoordinatePair{Tx: p.Tx, Rx: p.Rx}] = p.Result
	}
	return &MockElevationProvider{m: m}
}

func (p *MockElevationProvider) GetProfile(ctx context.Context, tx, rx domain.Coordinate) (*domain.ProfileResult, error) {
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}

	r, ok := p.m[domain.CoordinatePair{Tx: tx, Rx: rx}]
	if !ok {
		return nil, fmt.Errorf("%w: no profile for %v -> %v", domain.ErrLookupFailure, tx, rx)
	}

	return r, nil
}
