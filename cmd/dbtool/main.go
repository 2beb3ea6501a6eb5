package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"
	"voyage-routing-service/internal/adapters/forecast"
	"voyage-routing-service/internal/adapters/gridstore"
	"voyage-routing-service/internal/adapters/repositories"
	"voyage-routing-service/internal/config"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/clock"
	"voyage-routing-service/internal/platform/db"
	"voyage-routing-service/internal/platform/logger"
	"voyage-routing-service/internal/ports"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	DBDriver string `long:"db-driver" env:"DB_DRIVER"    description:"Database driver" choice:"sqlite" choice:"postgres" default:"sqlite"`
	DSN      string `long:"dsn"       env:"DATABASE_URL" description:"SQLite path or Postgres URL" default:"data/voyage.db"`

	Init   initCommand   `command:"init"             description:"Create the database schema"`
	Seed   seedCommand   `command:"seed-calibration" description:"Load vessel calibrations from a JSON file"`
	Ingest ingestCommand `command:"ingest-synthetic" description:"Store a synthetic forecast run and climatology in the grid tables"`
}

var opts Options

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
	}

	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		opts.Logger.Setup()
		return cmd.Execute(args)
	}
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// openDB connects and makes sure the schema exists.
func openDB() (*sql.DB, error) {
	conn, err := db.Open(opts.DBDriver, opts.DSN)
	if err != nil {
		return nil, err
	}
	if err := repositories.InitSchema(conn, opts.DBDriver); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

type initCommand struct{}

func (c *initCommand) Execute([]string) error {
	log.Info().Str("driver", opts.DBDriver).Msg("initializing database schema")
	conn, err := openDB()
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info().Msg("schema ready")
	return nil
}

type seedCommand struct {
	Path string `long:"path" env:"SEED_PATH" description:"Calibration JSON file" default:"data/seeds/calibration.json"`
}

func (c *seedCommand) Execute([]string) error {
	conn, err := openDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	repo, err := repositories.NewCalibrationRepository(conn, opts.DBDriver)
	if err != nil {
		return err
	}
	n, err := repositories.SeedCalibrationFromJSON(context.Background(), repo, c.Path)
	if err != nil {
		return err
	}
	log.Info().Int("vessels", n).Str("path", c.Path).Msg("seeding complete")
	return nil
}

type ingestCommand struct {
	ConfigFile  string  `short:"c" long:"config" env:"CONFIG_FILE" description:"Engine configuration file for step, horizon and resolution"`
	LatMin      float64 `long:"lat-min" default:"-60" description:"Southern edge of the ingested area"`
	LatMax      float64 `long:"lat-max" default:"70"  description:"Northern edge of the ingested area"`
	LonMin      float64 `long:"lon-min" default:"-100" description:"Western edge of the ingested area"`
	LonMax      float64 `long:"lon-max" default:"40"  description:"Eastern edge of the ingested area"`
	Climatology bool    `long:"climatology" description:"Also store climatology for every day of the year"`
}

func (c *ingestCommand) Execute([]string) error {
	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return err
	}
	area := domain.BBox{LatMin: c.LatMin, LatMax: c.LatMax, LonMin: c.LonMin, LonMax: c.LonMax}
	if area.LatMax <= area.LatMin || area.LonMax <= area.LonMin {
		return fmt.Errorf("ingest: empty area %s", area)
	}

	conn, err := openDB()
	if err != nil {
		return err
	}
	defer conn.Close()

	store, err := gridstore.New(conn, opts.DBDriver)
	if err != nil {
		return err
	}

	ctx := context.Background()
	synth := forecast.NewSynthetic(clock.RealClock{}, cfg.Weather.StepHours, int(cfg.Weather.HorizonDays*24))
	params := []grid.Parameter{grid.ParameterWind, grid.ParameterWaves, grid.ParameterCurrents}

	if err := ingestRun(ctx, store, synth, area, cfg.Weather.ResolutionDeg, params); err != nil {
		return err
	}
	if c.Climatology {
		return ingestClimatology(ctx, store, synth, area, cfg.Weather.ResolutionDeg, params)
	}
	return nil
}

// ingestRun stores every step of the latest synthetic run and publishes it
// once all grids are written.
func ingestRun(ctx context.Context, store gridstore.Store, src ports.ForecastProvider, area domain.BBox, res float64, params []grid.Parameter) error {
	fr, err := src.LatestRun(ctx)
	if err != nil {
		return err
	}
	run := gridstore.Run{ID: uuid.NewString(), Forecast: fr, GridResolution: res, BBox: area}
	if err := store.CreateRun(ctx, run); err != nil {
		return err
	}

	start := time.Now()
	grids := 0
	for h := 0; h <= fr.HorizonHours; h += fr.StepHours {
		for _, p := range params {
			key := grid.Key{
				Source:     fr.Source,
				Parameter:  p,
				BBox:       area,
				Resolution: res,
				Time:       fr.RunTime.Add(time.Duration(h) * time.Hour),
				RunTime:    fr.RunTime,
			}
			g, err := src.ForecastGrid(ctx, key)
			if err != nil {
				return fmt.Errorf("ingest run %s: %w", run.ID, err)
			}
			if err := store.SaveForecastGrid(ctx, run.ID, h, g); err != nil {
				return fmt.Errorf("ingest run %s: %w", run.ID, err)
			}
			grids++
		}
	}

	if err := store.CompleteRun(ctx, run.ID); err != nil {
		return err
	}
	log.Info().
		Str("run_id", run.ID).
		Time("run_time", fr.RunTime).
		Int("grids", grids).
		Dur("dur", time.Since(start)).
		Msg("forecast run ingested")
	return nil
}

// Climatology is keyed by day of year; a leap year covers day 366.
func ingestClimatology(ctx context.Context, store gridstore.Store, src ports.ClimatologyProvider, area domain.BBox, res float64, params []grid.Parameter) error {
	start := time.Now()
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 366; d++ {
		for _, p := range params {
			key := grid.Key{
				Source:     grid.SourceClimatology,
				Parameter:  p,
				BBox:       area,
				Resolution: res,
				Time:       base.AddDate(0, 0, d),
			}
			g, err := src.ClimatologyGrid(ctx, key)
			if err != nil {
				return fmt.Errorf("ingest climatology day %d: %w", d+1, err)
			}
			if err := store.SaveClimatologyGrid(ctx, g); err != nil {
				return fmt.Errorf("ingest climatology day %d: %w", d+1, err)
			}
		}
	}
	log.Info().Dur("dur", time.Since(start)).Msg("climatology ingested")
	return nil
}
