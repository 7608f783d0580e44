package reducer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultPingSchedule keeps an idle free-tier host from sleeping.
const DefaultPingSchedule = "@every 14m"

// Pinger checks that a server is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthPinger pings a server on a cron schedule, independently of any
// stream.
type HealthPinger struct {
	pinger   Pinger
	schedule string
	cron     *cron.Cron
	onResult func(error)
}

// cronParser accepts standard 5-field expressions, an optional seconds
// field, and descriptors such as "@every 14m".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewHealthPinger creates a pinger. An empty schedule uses
// DefaultPingSchedule. onResult, if set, is called after every ping.
func NewHealthPinger(p Pinger, schedule string, onResult func(error)) *HealthPinger {
	if schedule == "" {
		schedule = DefaultPingSchedule
	}
	return &HealthPinger{
		pinger:   p,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cronParser)),
		onResult: onResult,
	}
}

// Start registers the ping and starts the cron ticker.
func (h *HealthPinger) Start() error {
	_, err := h.cron.AddFunc(h.schedule, h.ping)
	if err != nil {
		return fmt.Errorf("invalid ping schedule %q: %w", h.schedule, err)
	}
	h.cron.Start()
	slog.Info("health ping scheduled", "schedule", h.schedule)
	return nil
}

// Stop stops the ticker and waits for a running ping to finish.
func (h *HealthPinger) Stop() {
	<-h.cron.Stop().Done()
}

func (h *HealthPinger) ping() {
	err := h.pinger.Ping(context.Background())
	if err != nil {
		slog.Warn("health ping failed", "error", err)
	} else {
		slog.Debug("health ping ok")
	}
	if h.onResult != nil {
		h.onResult(err)
	}
}
