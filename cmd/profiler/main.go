package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"terrain-profile-service/internal/adapters/cache"
	"terrain-profile-service/internal/adapters/chart"
	"terrain-profile-service/internal/adapters/elevation"
	"terrain-profile-service/internal/adapters/store"
	"terrain-profile-service/internal/config"
	"terrain-profile-service/internal/domain"
	"terrain-profile-service/internal/platform/db"
	"terrain-profile-service/internal/services"

	"github.com/sirupsen/logrus"
)

type options struct {
	txLat, txLng, rxLat, rxLng float64
	shareURL                   string
	out                        string
	storePath                  string
	visitor                    string
}

// markerLog stands in for the map: marker positions are only logged.
type markerLog struct{}

func (markerLog) ShowMarkers(pair domain.CoordinatePair) {
	logrus.WithFields(logrus.Fields{
		"tx_lat": pair.Tx.Lat, "tx_lng": pair.Tx.Lon,
		"rx_lat": pair.Rx.Lat, "rx_lng": pair.Rx.Lon,
	}).Debug("markers")
}

func main() {
	cfg := config.Load()
	config.ConfigureLogger(cfg.LogLevel, false)

	nan := math.NaN()
	var opts options
	flag.Float64Var(&opts.txLat, "tx-lat", nan, "transmitter latitude")
	flag.Float64Var(&opts.txLng, "tx-lng", nan, "transmitter longitude")
	flag.Float64Var(&opts.rxLat, "rx-lat", nan, "receiver latitude")
	flag.Float64Var(&opts.rxLng, "rx-lng", nan, "receiver longitude")
	flag.StringVar(&opts.shareURL, "url", "", "shared profile link to reproduce")
	flag.StringVar(&opts.out, "out", "profile.png", "chart output path (.png or .svg)")
	flag.StringVar(&opts.storePath, "store", cfg.SQLitePath, "SQLite file keeping the last submitted coordinates")
	flag.StringVar(&opts.visitor, "visitor", "local", "visitor the coordinates are stored under")
	flag.Parse()

	if err := run(context.Background(), cfg, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	if opts.shareURL != "" && opts.hasPair() {
		return errors.New("use either -url or coordinates, not both")
	}

	conn, err := db.OpenSQLite(opts.storePath)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := store.InitSQLiteSchema(conn); err != nil {
		return err
	}

	scheme, err := services.SchemeByName(cfg.ElevationScheme)
	if err != nil {
		return err
	}
	profiles := cache.NewSqliteProfileCache(conn, cfg.ProfileCacheTTL)
	provider, err := elevation.NewSRTMProvider(cfg.ElevationURL, scheme, cfg.ElevationTimeout, profiles)
	if err != nil {
		return err
	}

	format, err := chart.ParseFormat(filepath.Ext(opts.out))
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(opts.out), ".profile-*")
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	coord, err := services.NewViewCoordinator(services.CoordinatorConfig{
		Provider:     provider,
		Renderer:     chart.NewRenderer(f, format, cfg.ChartWidth, cfg.ChartHeight),
		Store:        store.NewSqliteCoordinateStore(conn, cfg.StoreTTL),
		Markers:      markerLog{},
		ShareBaseURL: cfg.ShareBaseURL,
		Visitor:      opts.visitor,
		Logger:       logrus.StandardLogger(),
	})
	if err != nil {
		return err
	}

	if err := coord.Init(ctx, opts.shareURL); err != nil {
		return failure(coord, err)
	}

	if opts.hasPair() {
		pair := domain.CoordinatePair{
			Tx: domain.Coordinate{Lat: opts.txLat, Lon: opts.txLng},
			Rx: domain.Coordinate{Lat: opts.rxLat, Lon: opts.rxLng},
		}
		if err := coord.Dispatch(ctx, services.FormEdited{Pair: pair}); err != nil {
			return err
		}
		if err := coord.Submit(ctx); err != nil {
			return failure(coord, err)
		}
	}

	st := coord.State()
	if st.Phase != services.PhaseRendered {
		printForm(st.Form)
		return nil
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	if err := os.Rename(f.Name(), opts.out); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}

	fmt.Println(st.Chart.Title)
	fmt.Println(st.Chart.DistanceLabel)
	fmt.Printf("chart written to %s\n", opts.out)
	if !st.Shared {
		fmt.Println(st.Location)
	}
	return nil
}

func (o options) hasPair() bool {
	return !math.IsNaN(o.txLat) || !math.IsNaN(o.txLng) || !math.IsNaN(o.rxLat) || !math.IsNaN(o.rxLng)
}

func printForm(p domain.CoordinatePair) {
	fmt.Printf("tx %.4f %.4f\n", p.Tx.Lat, p.Tx.Lon)
	fmt.Printf("rx %.4f %.4f\n", p.Rx.Lat, p.Rx.Lon)
}

func failure(coord *services.ViewCoordinator, err error) error {
	if notice := coord.State().Notice; notice != "" {
		return errors.New(notice)
	}
	return err
}
