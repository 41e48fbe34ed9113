package services

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"terrain-profile-service/internal/domain"
)

var (
	// Query carries no shareable profile (fresh visit).
	ErrNotPresent = errors.New("no profile in query")

	// Query carries the sentinel field but a coordinate is missing or unparsable.
	ErrMalformedQuery = errors.New("malformed profile query")
)

// Query-string field names for the four coordinates of a profile request.
// Sentinel is the field whose presence marks a query as a profile link.
type FieldScheme struct {
	Name     string
	TxLng    string
	TxLat    string
	RxLng    string
	RxLat    string
	Sentinel string
}

var (
	// Naming used by the profiler page and shared links.
	ShareScheme = FieldScheme{
		Name:     "share",
		TxLng:    "txLng",
		TxLat:    "txLat",
		RxLng:    "rxLng",
		RxLat:    "rxLat",
		Sentinel: "txLng",
	}

	// Naming used by the SRTM elevation CGI service.
	SRTMScheme = FieldScheme{
		Name:     "srtm",
		TxLng:    "x1",
		TxLat:    "y1",
		RxLng:    "x2",
		RxLat:    "y2",
		Sentinel: "x1",
	}
)

// SchemeByName resolves a configured scheme name.
func SchemeByName(name string) (FieldScheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SRTMScheme.Name:
		return SRTMScheme, nil
	case ShareScheme.Name:
		return ShareScheme, nil
	default:
		return FieldScheme{}, fmt.Errorf("unknown field scheme %q", name)
	}
}

// Number of decimal places written to the wire; ~11 m at the equator.
const coordinatePrecision = 4

// Request descriptor for one elevation profile.
type ProfileRequest struct {
	Pair  domain.CoordinatePair
	Query string
}

// RequestBuilder encodes and decodes coordinate pairs as query strings
// using a fixed field naming scheme. Field order in Encode is stable
// because encoded queries end up in shared links.
type RequestBuilder struct {
	scheme FieldScheme
}

func NewRequestBuilder(scheme FieldScheme) *RequestBuilder {
	return &RequestBuilder{scheme: scheme}
}

func (b *RequestBuilder) Scheme() FieldScheme { return b.scheme }

// Request validates both coordinates and returns the request descriptor.
func (b *RequestBuilder) Request(tx, rx domain.Coordinate) (ProfileRequest, error) {
	q, err := b.Encode(tx, rx)
	if err != nil {
		return ProfileRequest{}, err
	}
	return ProfileRequest{
		Pair:  domain.CoordinatePair{Tx: tx, Rx: rx},
		Query: q,
	}, nil
}

// Encode returns the canonical query string (no leading '?'):
// tx longitude, tx latitude, rx longitude, rx latitude.
func (b *RequestBuilder) Encode(tx, rx domain.Coordinate) (string, error) {
	pair := domain.CoordinatePair{Tx: tx, Rx: rx}
	if err := pair.Validate(); err != nil {
		return "", fmt.Errorf("encode profile query: %w", err)
	}

	fields := []struct {
		name  string
		value float64
	}{
		{b.scheme.TxLng, tx.Lon},
		{b.scheme.TxLat, tx.Lat},
		{b.scheme.RxLng, rx.Lon},
		{b.scheme.RxLat, rx.Lat},
	}

	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(f.name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(strconv.FormatFloat(f.value, 'f', coordinatePrecision, 64)))
	}

	return sb.String(), nil
}

// Decode extracts a coordinate pair from a query string or full URL.
// It returns ErrNotPresent when the sentinel field is absent and
// ErrMalformedQuery when it is present but the fields cannot be read.
func (b *RequestBuilder) Decode(query string) (domain.CoordinatePair, error) {
	raw := strings.TrimSpace(query)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}

	// ParseQuery keeps every pair it could read even when it returns an error,
	// so the sentinel check still distinguishes a fresh visit.
	values, parseErr := url.ParseQuery(raw)
	if !values.Has(b.scheme.Sentinel) {
		return domain.CoordinatePair{}, ErrNotPresent
	}
	if parseErr != nil {
		return domain.CoordinatePair{}, fmt.Errorf("%w: %v", ErrMalformedQuery, parseErr)
	}

	read := func(name string) (float64, error) {
		if !values.Has(name) {
			return 0, fmt.Errorf("%w: missing field %q", ErrMalformedQuery, name)
		}
		s := strings.TrimSpace(values.Get(name))
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: field %q=%q is not a number", ErrMalformedQuery, name, s)
		}
		return v, nil
	}

	txLng, err := read(b.scheme.TxLng)
	if err != nil {
		return domain.CoordinatePair{}, err
	}
	txLat, err := read(b.scheme.TxLat)
	if err != nil {
		return domain.CoordinatePair{}, err
	}
	rxLng, err := read(b.scheme.RxLng)
	if err != nil {
		return domain.CoordinatePair{}, err
	}
	rxLat, err := read(b.scheme.RxLat)
	if err != nil {
		return domain.CoordinatePair{}, err
	}

	pair := domain.CoordinatePair{
		Tx: domain.Coordinate{Lat: txLat, Lon: txLng},
		Rx: domain.Coordinate{Lat: rxLat, Lon: rxLng},
	}
	if err := pair.Validate(); err != nil {
		return domain.CoordinatePair{}, fmt.Errorf("%w: %w", ErrMalformedQuery, err)
	}

	return pair, nil
}
