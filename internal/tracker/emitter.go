package tracker

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/codepulse/internal/clock"
	"github.com/j-veylop/codepulse/internal/logger"
	"github.com/j-veylop/codepulse/internal/models"
	"github.com/j-veylop/codepulse/internal/spool"
)

// EmitterConfig configures an Emitter.
type EmitterConfig struct {
	SpoolPath string
	StatePath string
	User      string
	Interval  time.Duration
	Languages *Languages
	Clock     clock.Clock
}

// Emitter fills in heartbeat defaults, applies the persisted throttle and
// appends accepted heartbeats to the spool.
type Emitter struct {
	cfg   EmitterConfig
	state *ThrottleStore
}

// NewEmitter creates an Emitter.
func NewEmitter(cfg EmitterConfig) *Emitter {
	if cfg.Languages == nil {
		cfg.Languages = DefaultLanguages()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Emitter{cfg: cfg, state: NewThrottleStore(cfg.StatePath)}
}

// Send spools hb unless the throttle suppresses it. It reports whether the
// heartbeat was written.
func (e *Emitter) Send(ctx context.Context, hb models.Heartbeat) (bool, error) {
	e.fill(&hb)

	sent := false
	err := e.state.Update(ctx, e.cfg.Interval, func(t *Throttle) error {
		if !t.ShouldSend(hb.Entity, hb.IsWrite, hb.Time) {
			return nil
		}
		if err := spool.Append(ctx, e.cfg.SpoolPath, hb); err != nil {
			return err
		}
		t.Record(hb.Entity, hb.Time)
		sent = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to send heartbeat: %w", err)
	}

	if sent {
		logger.Debug("heartbeat spooled", "id", hb.ID, "entity", hb.Entity, "language", hb.Language)
	} else {
		logger.Debug("heartbeat throttled", "entity", hb.Entity)
	}
	return sent, nil
}

func (e *Emitter) fill(hb *models.Heartbeat) {
	if hb.ID == "" {
		hb.ID = uuid.NewString()
	}
	if hb.User == "" {
		hb.User = e.cfg.User
	}
	if hb.Time.IsZero() {
		hb.Time = e.cfg.Clock.Now()
	}
	hb.Time = hb.Time.UTC()
	if hb.Language == "" && hb.Entity != "" {
		hb.Language = e.cfg.Languages.Detect(hb.Entity)
	}
	if hb.Project == "" && hb.Entity != "" {
		if dir := filepath.Base(filepath.Dir(hb.Entity)); dir != "." && dir != string(filepath.Separator) {
			hb.Project = dir
		}
	}
	if hb.Platform == "" {
		hb.Platform = runtime.GOOS
	}
}
