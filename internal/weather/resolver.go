// Package weather resolves the weather a vessel meets at a place and time,
// choosing between the live forecast, a forecast/climatology blend near the
// forecast horizon and pure climatology beyond it.
package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/ports"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Climatology keys carry the day of year on this leap year so that every
// calendar year maps onto the same grids.
var climatologyYear = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type Resolver struct {
	cfg         Config
	forecast    ports.ForecastProvider
	climatology ports.ClimatologyProvider
	cache       *GridCache
	mask        *grid.OceanMask
}

// NewResolver wires the providers. forecast may be nil, in which case every
// query is answered from climatology. A nil cache gets a private one and a
// nil mask treats every grid point as ocean.
func NewResolver(
	cfg Config,
	forecast ports.ForecastProvider,
	climatology ports.ClimatologyProvider,
	cache *GridCache,
	mask *grid.OceanMask,
) (*Resolver, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new weather resolver: %w", err)
	}
	if climatology == nil {
		return nil, errors.New("new weather resolver: climatology provider is required")
	}
	if cache == nil {
		cache = NewGridCache(cfg.CacheEntries, nil, nil)
	}
	return &Resolver{
		cfg:         cfg,
		forecast:    forecast,
		climatology: climatology,
		cache:       cache,
		mask:        mask,
	}, nil
}

func (r *Resolver) Config() Config { return r.cfg }

// Provenance picks the tier for a query at t against a run issued at
// runTime. With d the offset in days, H the horizon and W the blend window:
// d <= H-W is forecast, H-W < d <= H is blended with forecast weight
// (H-d)/W, and anything later is climatology.
func (r *Resolver) Provenance(runTime, t time.Time) domain.Provenance {
	d := t.Sub(runTime).Hours() / 24
	h, w := r.cfg.HorizonDays, r.cfg.BlendWindowDays
	switch {
	case d <= h-w:
		return domain.ForecastProvenance()
	case d <= h:
		return domain.BlendedProvenance((h - d) / w)
	default:
		return domain.ClimatologyProvenance()
	}
}

// Resolve is a one-shot Field(area).Resolve(t).
func (r *Resolver) Resolve(ctx context.Context, area domain.BBox, t time.Time) (Source, domain.Provenance, error) {
	f, err := r.Field(ctx, area)
	if err != nil {
		return nil, domain.Provenance{}, err
	}
	return f.Resolve(ctx, t)
}

// Field is a request-scoped view of the weather over one area. It pins the
// forecast run current when it was opened so that every leg of a voyage or
// every edge of a search sees the same run.
type Field struct {
	r    *Resolver
	bbox domain.BBox
	run  *ports.ForecastRun

	// West of the antimeridian when the area reaches past it. It shares run.
	west *Field

	// Layers already fetched, by forecast hour and by day of year.
	mu       sync.Mutex
	steps    map[int]layers
	climDays map[int]layers
}

// Field opens a view over area. The grids fetched cover area plus the
// configured margin, snapped to the grid resolution. An area reaching past
// the antimeridian is fetched as two boxes, one on each side.
func (r *Resolver) Field(ctx context.Context, area domain.BBox) (*Field, error) {
	parts := area.Expand(r.cfg.FetchMarginDeg).SplitAntimeridian()
	f := r.newField(parts[0])
	if len(parts) == 2 {
		f.west = r.newField(parts[1])
	}
	if r.forecast == nil {
		return f, nil
	}

	run, err := r.forecast.LatestRun(ctx)
	switch {
	case errors.Is(err, ports.ErrGridNotFound):
		log.Debug().Msg("no forecast run available, using climatology")
	case err != nil:
		return nil, fmt.Errorf("open weather field: latest run: %w", err)
	default:
		f.run = &run
		if f.west != nil {
			f.west.run = &run
		}
	}
	return f, nil
}

func (r *Resolver) newField(b domain.BBox) *Field {
	return &Field{
		r:        r,
		bbox:     b.Snap(r.cfg.ResolutionDeg),
		steps:    make(map[int]layers),
		climDays: make(map[int]layers),
	}
}

// BBox is the fetched box, or its eastern part when the area reaches past
// the antimeridian.
func (f *Field) BBox() domain.BBox { return f.bbox }

// Run reports the forecast run in use; ok is false when there is none.
func (f *Field) Run() (run ports.ForecastRun, ok bool) {
	if f.run == nil {
		return ports.ForecastRun{}, false
	}
	return *f.run, true
}

func (f *Field) HorizonDays() float64 { return f.r.cfg.HorizonDays }

// Resolve returns the sample source for query time t and its provenance.
func (f *Field) Resolve(ctx context.Context, t time.Time) (Source, domain.Provenance, error) {
	src, prov, err := f.resolve(ctx, t)
	if err != nil || f.west == nil {
		return src, prov, err
	}
	west, _, err := f.west.resolve(ctx, t)
	if err != nil {
		return nil, prov, err
	}
	return antimeridian{east: src, west: west, eastMin: f.bbox.LonMin}, prov, nil
}

func (f *Field) resolve(ctx context.Context, t time.Time) (Source, domain.Provenance, error) {
	if f.run == nil {
		src, err := f.climatologyAt(ctx, t)
		if err != nil {
			return nil, domain.ClimatologyProvenance(), err
		}
		return src, domain.ClimatologyProvenance(), nil
	}

	prov := f.r.Provenance(f.run.RunTime, t)
	switch prov.Source() {
	case domain.SourceForecast:
		src, err := f.forecastAt(ctx, t)
		if err != nil {
			return nil, prov, err
		}
		return src, prov, nil

	case domain.SourceBlended:
		fc, err := f.forecastAt(ctx, t)
		if err != nil {
			return nil, prov, err
		}
		cl, err := f.climatologyAt(ctx, t)
		if err != nil {
			return nil, prov, err
		}
		w, _ := prov.BlendWeight()
		return blend{a: fc, b: cl, wa: w}, prov, nil

	default:
		src, err := f.climatologyAt(ctx, t)
		if err != nil {
			return nil, prov, err
		}
		return src, prov, nil
	}
}

// At samples the weather at p at time t.
func (f *Field) At(ctx context.Context, p domain.Position, t time.Time) (domain.WeatherSample, domain.Provenance, error) {
	src, prov, err := f.Resolve(ctx, t)
	if err != nil {
		return domain.WeatherSample{}, prov, err
	}
	s, err := src.Sample(p.Lat, p.Lon)
	if err != nil {
		return domain.WeatherSample{}, prov, err
	}
	return s, prov, nil
}

// forecastAt interpolates linearly in time between the two forecast steps
// bracketing t. Times before the run or past its last step are clamped.
func (f *Field) forecastAt(ctx context.Context, t time.Time) (valuerSource, error) {
	run := *f.run
	step := run.StepHours
	if step <= 0 {
		step = f.r.cfg.StepHours
	}
	last := run.HorizonHours
	if last <= 0 {
		last = int(f.r.cfg.HorizonDays * 24)
	}

	h := min(max(t.Sub(run.RunTime).Hours(), 0), float64(last))
	h0 := int(math.Floor(h/float64(step))) * step
	frac := (h - float64(h0)) / float64(step)

	lo, err := f.stepLayers(ctx, run, h0)
	if err != nil {
		return nil, err
	}
	if frac == 0 || h0+step > last {
		return lo, nil
	}
	hi, err := f.stepLayers(ctx, run, h0+step)
	if err != nil {
		return nil, err
	}
	return blend{a: lo, b: hi, wa: 1 - frac}, nil
}

func (f *Field) stepLayers(ctx context.Context, run ports.ForecastRun, hour int) (layers, error) {
	f.mu.Lock()
	l, ok := f.steps[hour]
	f.mu.Unlock()
	if ok {
		return l, nil
	}

	l, err := f.fetchLayers(ctx, f.forecastKeys(run, hour), f.buildForecast)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.steps[hour] = l
	f.mu.Unlock()
	return l, nil
}

func (f *Field) climatologyAt(ctx context.Context, t time.Time) (valuerSource, error) {
	yday := t.UTC().YearDay()

	f.mu.Lock()
	l, ok := f.climDays[yday]
	f.mu.Unlock()
	if ok {
		return l, nil
	}

	day := climatologyYear.AddDate(0, 0, yday-1)
	keys := make([]grid.Key, 0, 3)
	for _, p := range f.r.parameters() {
		keys = append(keys, grid.Key{
			Source:     grid.SourceClimatology,
			Parameter:  p,
			BBox:       f.bbox,
			Resolution: f.r.cfg.ResolutionDeg,
			Time:       day,
		})
	}
	l, err := f.fetchLayers(ctx, keys, f.buildClimatology)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.climDays[yday] = l
	f.mu.Unlock()
	return l, nil
}

func (f *Field) forecastKeys(run ports.ForecastRun, hour int) []grid.Key {
	keys := make([]grid.Key, 0, 3)
	for _, p := range f.r.parameters() {
		keys = append(keys, grid.Key{
			Source:     run.Source,
			Parameter:  p,
			BBox:       f.bbox,
			Resolution: f.r.cfg.ResolutionDeg,
			Time:       run.RunTime.Add(time.Duration(hour) * time.Hour),
			RunTime:    run.RunTime,
		})
	}
	return keys
}

func (r *Resolver) parameters() []grid.Parameter {
	if r.cfg.IncludeCurrents {
		return []grid.Parameter{grid.ParameterWind, grid.ParameterWaves, grid.ParameterCurrents}
	}
	return []grid.Parameter{grid.ParameterWind, grid.ParameterWaves}
}

type valuerSource interface {
	valuer
	Source
}

// fetchLayers fetches the grids for keys concurrently. Currents are optional:
// a missing currents grid is skipped rather than failing the query.
func (f *Field) fetchLayers(ctx context.Context, keys []grid.Key, build func(grid.Key) BuildFunc) (layers, error) {
	out := make([]*grid.Grid, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			gr, err := f.lookupGrid(gctx, key, build(key))
			if err != nil {
				if key.Parameter == grid.ParameterCurrents && errors.Is(err, ports.ErrGridNotFound) {
					return nil
				}
				return err
			}
			out[i] = gr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve weather: %w", err)
	}

	l := make(layers, 0, len(out))
	for _, gr := range out {
		if gr != nil {
			l = append(l, gr)
		}
	}
	return l, nil
}

func (f *Field) lookupGrid(ctx context.Context, key grid.Key, build BuildFunc) (*grid.Grid, error) {
	g, err := f.r.cache.Get(ctx, key, build)
	if err != nil {
		return nil, err
	}
	return g.WithMask(f.r.mask), nil
}

func (f *Field) buildForecast(key grid.Key) BuildFunc {
	return func(ctx context.Context) (*grid.Grid, error) {
		g, err := f.r.forecast.ForecastGrid(ctx, key)
		if err != nil {
			return nil, err
		}
		return g.Crop(key.BBox)
	}
}

func (f *Field) buildClimatology(key grid.Key) BuildFunc {
	return func(ctx context.Context) (*grid.Grid, error) {
		g, err := f.r.climatology.ClimatologyGrid(ctx, key)
		if err != nil {
			return nil, err
		}
		return g.Crop(key.BBox)
	}
}
