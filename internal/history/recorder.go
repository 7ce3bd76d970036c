package history

import (
	"context"
	"time"

	qdb "github.com/questdb/go-questdb-client/v4"
	"go.uber.org/zap"

	"github.com/openuas/catchleader/internal/guidance"
	"github.com/openuas/catchleader/internal/metrics"
	"github.com/openuas/catchleader/internal/vehicle"
)

const (
	tableVehicleTrack    = "vehicle_track"
	tableGuidanceTargets = "guidance_targets"

	rowBuffer     = 4096
	flushInterval = time.Second
)

type row struct {
	vehicle *vehicleRow
	target  *targetRow
}

type vehicleRow struct {
	state vehicle.State
	at    time.Time
}

type targetRow struct {
	target guidance.Target
	manual bool
	eta    float64
	at     time.Time
}

// Recorder implements guidance.Recorder against QuestDB. Record* calls are
// non-blocking: rows are queued to a worker goroutine, and when the queue is
// full the row is counted and dropped. History loss never stalls guidance.
type Recorder struct {
	pool   *SenderPool
	rows   chan row
	logger *zap.Logger
}

func NewRecorder(pool *SenderPool, logger *zap.Logger) *Recorder {
	return &Recorder{
		pool:   pool,
		rows:   make(chan row, rowBuffer),
		logger: logger,
	}
}

// RecordVehicle queues one track row.
func (r *Recorder) RecordVehicle(s vehicle.State, now time.Time) {
	select {
	case r.rows <- row{vehicle: &vehicleRow{state: s, at: now}}:
	default:
		metrics.HistoryRowsDroppedTotal.Inc()
	}
}

// RecordTarget queues one emitted-target row.
func (r *Recorder) RecordTarget(t guidance.Target, manual bool, eta float64, now time.Time) {
	select {
	case r.rows <- row{target: &targetRow{target: t, manual: manual, eta: eta, at: now}}:
	default:
		metrics.HistoryRowsDroppedTotal.Inc()
	}
}

// Run drains the queue until the context is cancelled, flushing at least once
// per flushInterval.
func (r *Recorder) Run(ctx context.Context) error {
	sender := r.pool.Get()
	defer r.pool.Return(sender)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			if dirty {
				if err := sender.Flush(context.Background()); err != nil {
					r.logger.Warn("final history flush failed", zap.Error(err))
				}
			}
			return nil
		case item := <-r.rows:
			if err := r.write(ctx, sender, item); err != nil {
				metrics.HistoryRowsDroppedTotal.Inc()
				r.logger.Warn("history write failed", zap.Error(err))
				continue
			}
			dirty = true
		case <-ticker.C:
			if !dirty {
				continue
			}
			if err := sender.Flush(ctx); err != nil {
				r.logger.Warn("history flush failed", zap.Error(err))
			}
			dirty = false
		}
	}
}

func (r *Recorder) write(ctx context.Context, sender qdb.LineSender, item row) error {
	switch {
	case item.vehicle != nil:
		v := item.vehicle
		speed, _ := v.state.Speed()
		return sender.Table(tableVehicleTrack).
			Symbol("vehicle", v.state.Identifier()).
			Symbol("mode", v.state.Mode).
			BoolColumn("armed", v.state.Armed).
			Float64Column("lat", v.state.Lat).
			Float64Column("lon", v.state.Lon).
			Float64Column("rel_alt", v.state.RelAlt).
			Float64Column("amsl_alt", v.state.AMSLAlt).
			Float64Column("vx", v.state.VX).
			Float64Column("vy", v.state.VY).
			Float64Column("vz", v.state.VZ).
			Float64Column("speed", speed).
			Float64Column("heading", v.state.Heading).
			At(ctx, v.at)
	case item.target != nil:
		t := item.target
		kind := "predicted"
		if t.manual {
			kind = "manual"
		}
		return sender.Table(tableGuidanceTargets).
			Symbol("kind", kind).
			Float64Column("lat", t.target.Lat).
			Float64Column("lon", t.target.Lon).
			Float64Column("alt", t.target.Alt).
			Float64Column("eta", t.eta).
			At(ctx, t.at)
	}
	return nil
}
