package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/config"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/logging"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/report"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/resilience"
)

// ErrDisabled is returned by Push when no collector URL is configured.
var ErrDisabled = errors.New("telemetry disabled")

// ErrRejected is returned when the collector answers with a non-2xx
// status.
var ErrRejected = errors.New("collector rejected report")

// Pusher delivers run reports to an external collector. The breaker
// keeps a dead collector from stalling repeated runs.
type Pusher struct {
	client  *resty.Client
	breaker *resilience.Breaker
	url     string
	log     *logging.Logger
}

// NewPusher creates a pusher from the telemetry configuration. An empty
// URL yields a disabled pusher whose Push fails ErrDisabled.
func NewPusher(cfg config.TelemetryConfig, log *logging.Logger) *Pusher {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Named("telemetry")

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("User-Agent", "kernelsim/1.0")

	breaker := resilience.New("telemetry", resilience.Options{
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Collector breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return &Pusher{client: client, breaker: breaker, url: cfg.URL, log: log}
}

// Enabled reports whether a collector URL is configured.
func (p *Pusher) Enabled() bool { return p.url != "" }

// Push POSTs the report to the collector as JSON.
func (p *Pusher) Push(ctx context.Context, rep *report.Report) error {
	if !p.Enabled() {
		return ErrDisabled
	}

	body, err := rep.Encode()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	return p.breaker.Do(func() error {
		resp, err := p.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(p.url)
		if err != nil {
			return fmt.Errorf("push report: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("%w: %s", ErrRejected, resp.Status())
		}

		p.log.Info("Report delivered",
			zap.String("report", rep.ID.String()),
			zap.String("collector", p.url),
			zap.Int("status", resp.StatusCode()))
		return nil
	})
}
