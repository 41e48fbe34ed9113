package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"terrain-profile-service/internal/adapters/cache"
	"terrain-profile-service/internal/adapters/elevation"
	"terrain-profile-service/internal/adapters/store"
	"terrain-profile-service/internal/api"
	"terrain-profile-service/internal/config"
	"terrain-profile-service/internal/platform/db"
	"terrain-profile-service/internal/ports"
	"terrain-profile-service/internal/services"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// main is the application composition root.
// It wires concrete adapters (SRTM, SQL/Redis stores) behind ports and starts the HTTP server.
func main() {
	cfg := config.Load()
	config.ConfigureLogger(cfg.LogLevel, true)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			logrus.WithError(err).Fatal("redis unreachable")
		}
		defer rdb.Close()
	}

	backend, err := openBackend(cfg, rdb)
	if err != nil {
		logrus.WithError(err).Fatal("open coordinate store")
	}
	defer backend.close()

	// Profiles are cached in Redis when it is configured, otherwise next to the store.
	profileCache := backend.cache
	if rdb != nil {
		profileCache = cache.NewRedisProfileCache(rdb, cfg.ProfileCacheTTL)
	}

	scheme, err := services.SchemeByName(cfg.ElevationScheme)
	if err != nil {
		logrus.WithError(err).Fatal("invalid ELEVATION_SCHEME")
	}
	provider, err := elevation.NewSRTMProvider(cfg.ElevationURL, scheme, cfg.ElevationTimeout, profileCache)
	if err != nil {
		logrus.WithError(err).Fatal("build elevation provider")
	}

	router := api.NewRouter(api.Deps{
		Provider:     provider,
		Store:        backend.store,
		ShareBaseURL: cfg.ShareBaseURL,
		ChartWidth:   cfg.ChartWidth,
		ChartHeight:  cfg.ChartHeight,
	})

	// Write timeout leaves room for a slow elevation lookup plus chart rendering.
	logrus.WithFields(logrus.Fields{
		"addr":  ":" + cfg.Port,
		"store": cfg.StoreBackend,
		"env":   cfg.Env,
	}).Info("server listening")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.ElevationTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	logrus.Fatal(srv.ListenAndServe())
}

type storage struct {
	store ports.CoordinateStore
	cache ports.ProfileCache
	close func()
}

// openBackend selects the coordinate store backend named by STORE_BACKEND.
// SQL backends also provide a profile cache on the same database.
func openBackend(cfg *config.Config, rdb *redis.Client) (*storage, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := store.InitSQLiteSchema(conn); err != nil {
			conn.Close()
			return nil, err
		}
		return &storage{
			store: store.NewSqliteCoordinateStore(conn, cfg.StoreTTL),
			cache: cache.NewSqliteProfileCache(conn, cfg.ProfileCacheTTL),
			close: closer(conn),
		}, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("open store: DATABASE_URL is required for the postgres backend")
		}
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &storage{
			store: store.NewSQLCoordinateStore(conn, cfg.StoreTTL),
			cache: cache.NewSQLProfileCache(conn, cfg.ProfileCacheTTL),
			close: closer(conn),
		}, nil

	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("open store: REDIS_ADDR is required for the redis backend")
		}
		return &storage{
			store: store.NewRedisCoordinateStore(rdb, cfg.StoreTTL),
			close: func() {},
		}, nil

	default:
		return nil, fmt.Errorf("open store: unknown backend %q", cfg.StoreBackend)
	}
}

func closer(conn *sql.DB) func() {
	return func() {
		if err := conn.Close(); err != nil {
			logrus.WithError(err).Warn("close database")
		}
	}
}
