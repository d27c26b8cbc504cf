// Package health probes the assessment backend's reachability.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"brain-health-assessment/internal/observability/metrics"
	"brain-health-assessment/internal/transport"
)

// Op is the operation name used for probe errors.
const Op = "health"

// Checker sends GET {baseURL}/health.
type Checker struct {
	baseURL  string
	timeout  time.Duration
	mockMode bool
	quiet    bool
	doer     transport.Doer
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewChecker creates a backend health checker. In mock mode every probe
// reports reachable without a request. With suppressErrors set, probe
// failures are logged at debug only.
func NewChecker(baseURL string, timeout time.Duration, mockMode, suppressErrors bool, doer transport.Doer, m *metrics.Metrics, logger zerolog.Logger) *Checker {
	if doer == nil {
		doer = &http.Client{}
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Checker{
		baseURL:  baseURL,
		timeout:  timeout,
		mockMode: mockMode,
		quiet:    suppressErrors,
		doer:     doer,
		metrics:  m,
		log:      logger,
	}
}

// Check reports whether the backend answered with a 2xx status. It never
// returns an error; failures are logged and reported as false.
func (c *Checker) Check(ctx context.Context) bool {
	if c.mockMode {
		return true
	}

	reachable := c.probe(ctx)
	c.metrics.RecordHealthCheck(reachable)
	return reachable
}

func (c *Checker) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		c.failure().Err(err).Msg("Server health check failed")
		return false
	}

	if _, err := transport.Call(ctx, c.doer, req, c.timeout, Op); err != nil {
		c.failure().
			Err(err).
			Str("kind", string(transport.KindOf(err))).
			Msg("Server health check failed")
		return false
	}
	return true
}

func (c *Checker) failure() *zerolog.Event {
	if c.quiet {
		return c.log.Debug()
	}
	return c.log.Error()
}
