package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"voyage-routing-service/internal/adapters/cache"
	"voyage-routing-service/internal/adapters/forecast"
	"voyage-routing-service/internal/adapters/gridstore"
	"voyage-routing-service/internal/adapters/landmask"
	"voyage-routing-service/internal/adapters/repositories"
	"voyage-routing-service/internal/api"
	"voyage-routing-service/internal/config"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/clock"
	"voyage-routing-service/internal/platform/db"
	"voyage-routing-service/internal/platform/logger"
	"voyage-routing-service/internal/platform/metrics"
	"voyage-routing-service/internal/ports"
	"voyage-routing-service/internal/routing"
	"voyage-routing-service/internal/services"
	"voyage-routing-service/internal/vessel"
	"voyage-routing-service/internal/voyage"
	"voyage-routing-service/internal/weather"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Weather sources selectable with --weather-source.
const (
	sourceSynthetic = "synthetic"
	sourceDB        = "db"
	sourceHTTP      = "http"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"    env:"CONFIG_FILE"    description:"Path to the engine configuration file (defaults when empty)"`
	Addr       string        `short:"a" long:"addr"      env:"LISTEN_ADDRESS" description:"Address to listen on" default:":8080"`
	DBDriver   string        `long:"db-driver"           env:"DB_DRIVER"      description:"Database driver" choice:"sqlite" choice:"postgres" default:"sqlite"`
	DSN        string        `long:"dsn"                 env:"DATABASE_URL"   description:"SQLite path or Postgres URL" default:"data/voyage.db"`
	RedisAddr  string        `long:"redis-addr"          env:"REDIS_ADDR"     description:"Redis address for the shared grid cache (disabled when empty)"`
	RedisTTL   time.Duration `long:"redis-ttl"           env:"REDIS_TTL"      description:"Lifetime of grids in the shared cache" default:"6h"`

	WeatherSource string `long:"weather-source"  env:"WEATHER_SOURCE"  description:"Where forecast and climatology grids come from" choice:"synthetic" choice:"db" choice:"http" default:"synthetic"`
	WeatherURL    string `long:"weather-url"     env:"WEATHER_URL"     description:"Base URL of the weather ingestion service"`
	WeatherAPIKey string `long:"weather-api-key" env:"WEATHER_API_KEY" description:"API key for the weather ingestion service"`

	LandShapefile  string  `long:"land-shapefile"  env:"LAND_SHAPEFILE"  description:"Land polygon shapefile for the ocean mask (no mask when empty)"`
	MaskResolution float64 `long:"mask-resolution" env:"MASK_RESOLUTION" description:"Ocean mask resolution in degrees" default:"0.25"`

	SeedCalibration string `long:"seed-calibration" env:"SEED_CALIBRATION" description:"JSON file of vessel calibrations loaded at start-up"`
}

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, weather providers) behind ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()
	if envErr != nil {
		log.Debug().Msg("no .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	conn, err := db.Open(opts.DBDriver, opts.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := repositories.InitSchema(conn, opts.DBDriver); err != nil {
		return err
	}
	calibrations, err := repositories.NewCalibrationRepository(conn, opts.DBDriver)
	if err != nil {
		return err
	}
	if opts.SeedCalibration != "" {
		n, err := repositories.SeedCalibrationFromJSON(ctx, calibrations, opts.SeedCalibration)
		if err != nil {
			return err
		}
		log.Info().Int("vessels", n).Str("path", opts.SeedCalibration).Msg("calibrations seeded")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	fc, clim, err := weatherProviders(opts, cfg, conn)
	if err != nil {
		return err
	}

	var l2 ports.GridSnapshotStore
	if opts.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		defer client.Close()
		store, err := cache.NewRedisGridStore(client, "", opts.RedisTTL)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = store.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("redis grid store: %w", err)
		}
		l2 = store
	}

	var mask *grid.OceanMask
	var land routing.Land
	if opts.LandShapefile != "" {
		world := domain.BBox{LatMin: -90, LatMax: 90, LonMin: -180, LonMax: 180}
		mask, err = landmask.Load(opts.LandShapefile, world, opts.MaskResolution)
		if err != nil {
			return err
		}
		land = mask
	}

	resolver, err := weather.NewResolver(cfg.Weather, fc, clim, weather.NewGridCache(cfg.Weather.CacheEntries, l2, m), mask)
	if err != nil {
		return err
	}
	model, err := vessel.NewModel(cfg.Vessel)
	if err != nil {
		return err
	}
	eval := voyage.NewEvaluator(model)
	searcher, err := routing.NewSearcher(cfg.Routing, eval, land)
	if err != nil {
		return err
	}
	svc, err := services.NewVoyageService(resolver, voyage.NewSimulator(eval, cfg.Weather.HorizonDays), searcher, services.Options{
		Calibrations: calibrations,
		Metrics:      m,
		Parallelism:  cfg.Service.Parallelism,
	})
	if err != nil {
		return err
	}

	// Write timeout covers a cold six-way optimization.
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           api.NewRouter(svc, reg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Routing.TimeLimit*2 + 60*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", opts.Addr).
			Str("db_driver", opts.DBDriver).
			Str("weather_source", opts.WeatherSource).
			Bool("shared_cache", l2 != nil).
			Bool("land_mask", mask != nil).
			Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func weatherProviders(opts Options, cfg *config.Config, conn *sql.DB) (ports.ForecastProvider, ports.ClimatologyProvider, error) {
	switch opts.WeatherSource {
	case sourceSynthetic:
		p := forecast.NewSynthetic(clock.RealClock{}, cfg.Weather.StepHours, int(cfg.Weather.HorizonDays*24))
		return p, p, nil
	case sourceDB:
		store, err := gridstore.New(conn, opts.DBDriver)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case sourceHTTP:
		p, err := forecast.NewHTTPProvider(opts.WeatherURL, forecast.WithAPIKey(opts.WeatherAPIKey))
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unsupported weather source %q", opts.WeatherSource)
	}
}
