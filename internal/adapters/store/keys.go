package store

import (
	"terrain-profile-service/internal/domain"
	"time"
)

// Entries live for ten years and are overwritten on every submit.
const DefaultTTL = 3650 * 24 * time.Hour

// Key names of the four stored coordinates.
const (
	keyTxLat = "txlatProfile"
	keyTxLng = "txlngProfile"
	keyRxLat = "rxlatProfile"
	keyRxLng = "rxlngProfile"
)

var coordinateKeys = []string{keyTxLat, keyTxLng, keyRxLat, keyRxLng}

func pairToValues(p domain.CoordinatePair) map[string]float64 {
	return map[string]float64{
		keyTxLat: p.Tx.Lat,
		keyTxLng: p.Tx.Lon,
		keyRxLat: p.Rx.Lat,
		keyRxLng: p.Rx.Lon,
	}
}

// pairFromValues reports ok only when all four keys are present.
func pairFromValues(v map[string]float64) (domain.CoordinatePair, bool) {
	for _, k := range coordinateKeys {
		if _, ok := v[k]; !ok {
			return domain.CoordinatePair{}, false
		}
	}
	return domain.CoordinatePair{
		Tx: domain.Coordinate{Lat: v[keyTxLat], Lon: v[keyTxLng]},
		Rx: domain.Coordinate{Lat: v[keyRxLat], Lon: v[keyRxLng]},
	}, true
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
