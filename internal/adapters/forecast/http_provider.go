package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/blob"
	"voyage-routing-service/internal/ports"
)

// Largest grid payload accepted from the remote service.
const maxPayloadBytes = 64 << 20

// HTTPProvider implements ForecastProvider and ClimatologyProvider against a
// remote grid service.
//
// The service exposes:
//   - GET /runs/latest returning the run metadata as JSON
//   - GET /grids/forecast returning one encoded grid for a run and valid time
//   - GET /grids/climatology returning one encoded grid for a day of year
//
// Grids travel in the compressed blob format. A 404 means the grid does not
// exist and is reported as ports.ErrGridNotFound. The provider is safe for
// concurrent use.
type HTTPProvider struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	maxAttempts int
	backoff     time.Duration
}

type HTTPOption func(*HTTPProvider)

func WithAPIKey(key string) HTTPOption { return func(p *HTTPProvider) { p.apiKey = key } }

func WithHTTPClient(c *http.Client) HTTPOption { return func(p *HTTPProvider) { p.session = c } }

// WithRetry sets the attempt count and initial backoff.
func WithRetry(attempts int, backoff time.Duration) HTTPOption {
	return func(p *HTTPProvider) {
		if attempts > 0 {
			p.maxAttempts = attempts
		}
		if backoff > 0 {
			p.backoff = backoff
		}
	}
}

func NewHTTPProvider(baseURL string, opts ...HTTPOption) (*HTTPProvider, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("weather service base url is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("weather service base url: %w", err)
	}

	p := &HTTPProvider{
		session:     &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURL,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type runResponse struct {
	Source       string    `json:"source"`
	RunTime      time.Time `json:"run_time"`
	StepHours    int       `json:"step_hours"`
	HorizonHours int       `json:"horizon_hours"`
}

func (p *HTTPProvider) LatestRun(ctx context.Context) (ports.ForecastRun, error) {
	u := p.baseURL + "/runs/latest"
	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		return p.newRequest(ctx, u, "application/json")
	})
	if err != nil {
		return ports.ForecastRun{}, fmt.Errorf("latest run: %w", notFound(err))
	}
	defer resp.Body.Close()

	var body runResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ports.ForecastRun{}, fmt.Errorf("decode latest run: %w", err)
	}
	if body.RunTime.IsZero() || body.StepHours <= 0 || body.HorizonHours <= 0 {
		return ports.ForecastRun{}, fmt.Errorf("latest run: incomplete metadata %+v", body)
	}
	return ports.ForecastRun{
		Source:       body.Source,
		RunTime:      body.RunTime.UTC(),
		StepHours:    body.StepHours,
		HorizonHours: body.HorizonHours,
	}, nil
}

func (p *HTTPProvider) ForecastGrid(ctx context.Context, key grid.Key) (*grid.Grid, error) {
	q := gridQuery(key)
	q.Set("time", key.Time.UTC().Format(time.RFC3339))
	q.Set("run", key.RunTime.UTC().Format(time.RFC3339))
	return p.fetchGrid(ctx, "/grids/forecast", q)
}

func (p *HTTPProvider) ClimatologyGrid(ctx context.Context, key grid.Key) (*grid.Grid, error) {
	q := gridQuery(key)
	q.Set("day", strconv.Itoa(key.Time.YearDay()))
	return p.fetchGrid(ctx, "/grids/climatology", q)
}

func gridQuery(key grid.Key) url.Values {
	b := key.BBox
	q := url.Values{}
	q.Set("param", string(key.Parameter))
	q.Set("bbox", fmt.Sprintf("%g,%g,%g,%g", b.LatMin, b.LonMin, b.LatMax, b.LonMax))
	q.Set("res", strconv.FormatFloat(key.Resolution, 'f', -1, 64))
	return q
}

func (p *HTTPProvider) fetchGrid(ctx context.Context, path string, q url.Values) (*grid.Grid, error) {
	u := p.baseURL + path + "?" + q.Encode()
	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		return p.newRequest(ctx, u, "application/octet-stream")
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", path, q.Get("param"), notFound(err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(payload) > maxPayloadBytes {
		return nil, fmt.Errorf("read %s: payload exceeds %d bytes", path, maxPayloadBytes)
	}
	g, err := blob.DecodeGrid(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return g, nil
}

func notFound(err error) error {
	var he *httpStatusError
	if errors.As(err, &he) && he.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ports.ErrGridNotFound, he.Body)
	}
	return err
}
