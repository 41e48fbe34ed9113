package domain

import (
	"fmt"
	"math"
)

// Immutable geographic coordinate in signed decimal degrees (WGS84).
type Coordinate struct {
	Lat float64
	Lon float64
}

// NewCoordinate builds a Coordinate and rejects non-finite or out-of-range values.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return fmt.Errorf("%w: latitude %v is not finite", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("%w: longitude %v is not finite", ErrInvalidCoordinate, c.Lon)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// Round returns the coordinate rounded to the given number of decimal places.
func (c Coordinate) Round(places int) Coordinate {
	p := math.Pow(10, float64(places))
	return Coordinate{
		Lat: math.Round(c.Lat*p) / p,
		Lon: math.Round(c.Lon*p) / p,
	}
}

// Transmitter and receiver ends of a point to point profile.
type CoordinatePair struct {
	Tx Coordinate
	Rx Coordinate
}

func (p CoordinatePair) Validate() error {
	if err := p.Tx.Validate(); err != nil {
		return fmt.Errorf("transmitter: %w", err)
	}
	if err := p.Rx.Validate(); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}
	return nil
}

// Endpoint names one end of a CoordinatePair.
type Endpoint int

const (
	Transmitter Endpoint = iota
	Receiver
)

func (e Endpoint) String() string {
	switch e {
	case Transmitter:
		return "tx"
	case Receiver:
		return "rx"
	default:
		return fmt.Sprintf("endpoint(%d)", int(e))
	}
}

// With returns a copy of the pair with one endpoint replaced.
func (p CoordinatePair) With(e Endpoint, c Coordinate) CoordinatePair {
	if e == Receiver {
		p.Rx = c
	} else {
		p.Tx = c
	}
	return p
}
