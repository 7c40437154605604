package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"liquidityKeeper/internal/keeper"
	"liquidityKeeper/internal/model"
	"liquidityKeeper/internal/notify"
	"liquidityKeeper/internal/storage"
)

// Engine detects bin moves and rebalances positions.
type Engine interface {
	CheckChanged(ctx context.Context, p *keeper.Position) (bool, error)
	CorrectDiapason(ctx context.Context, p *keeper.Position) (keeper.Outcome, error)
}

// Config controls loop pacing.
type Config struct {
	Interval      time.Duration
	PositionDelay time.Duration
}

// Loop polls every position on a fixed interval. Positions are handled
// one at a time in list order, which also serializes use of the signing
// account.
type Loop struct {
	engine    Engine
	positions []*keeper.Position
	saver     storage.PositionSaver
	events    storage.EventSink
	notifier  notify.Notifier
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time

	reported map[*keeper.Position]bool
}

// New builds a Loop. Positions that failed to initialize stay in the list
// so they are persisted unchanged; they never report a bin move. saver,
// events and notifier may be nil.
func New(engine Engine, positions []*keeper.Position, saver storage.PositionSaver, events storage.EventSink, notifier notify.Notifier, cfg Config, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Loop{
		engine:    engine,
		positions: positions,
		saver:     saver,
		events:    events,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		reported:  make(map[*keeper.Position]bool),
	}
}

// Run ticks until ctx is cancelled. Cancellation is observed between
// ticks and between positions, never inside a rebalance.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("monitoring started",
		zap.Int("positions", len(l.positions)),
		zap.Duration("interval", l.cfg.Interval),
	)
	for {
		l.Tick(ctx)
		if !l.wait(ctx, l.cfg.Interval) {
			l.logger.Info("monitoring stopped")
			return nil
		}
	}
}

// Tick processes every position once. A failure aborts the rest of the
// tick and is reported; it never escapes.
func (l *Loop) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.reportError(ctx, fmt.Errorf("panic: %v", r))
		}
	}()

	for i, p := range l.positions {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && !l.wait(ctx, l.cfg.PositionDelay) {
			return
		}
		if err := l.step(ctx, p); err != nil {
			if ctx.Err() != nil {
				l.logger.Debug("tick interrupted by shutdown", zap.String("position", p.Name()), zap.Error(err))
				return
			}
			l.reportError(ctx, fmt.Errorf("%s: %w", p.Name(), err))
			return
		}
	}
}

func (l *Loop) step(ctx context.Context, p *keeper.Position) error {
	if p.Stranded() {
		if !l.reported[p] {
			l.reported[p] = true
			l.emit(ctx, fmt.Sprintf("%s is stranded at bin %d and is no longer rebalanced, clear the stranded entry in the positions file after recovering funds", p.Name(), p.CurrentBinID()))
		}
		return nil
	}

	changed, err := l.engine.CheckChanged(ctx, p)
	if err != nil {
		return fmt.Errorf("check active bin: %w", err)
	}
	if !changed {
		return nil
	}

	out, err := l.engine.CorrectDiapason(ctx, p)
	if err != nil {
		return fmt.Errorf("rebalance: %w", err)
	}
	l.record(ctx, p, out)

	switch {
	case out.Success:
		l.persist(ctx)
		if out.Information != "" {
			l.emit(ctx, out.Information)
		}
	case out.Status == keeper.StatusStranded:
		l.reported[p] = true
		l.persist(ctx)
		l.emit(ctx, out.Information)
	default:
		l.logger.Info("rebalance not completed",
			zap.String("position", p.Name()),
			zap.String("status", out.Status),
			zap.Uint32("bin_id", p.CurrentBinID()),
		)
	}
	return nil
}

// Records returns the persisted form of every position in list order.
func (l *Loop) Records() []model.PositionRecord {
	records := make([]model.PositionRecord, 0, len(l.positions))
	for _, p := range l.positions {
		records = append(records, p.Record())
	}
	return records
}

func (l *Loop) persist(ctx context.Context) {
	if l.saver == nil {
		return
	}
	if err := l.saver.SavePositions(ctx, l.Records()); err != nil {
		l.logger.Error("save positions failed", zap.Error(err))
	}
}

func (l *Loop) record(ctx context.Context, p *keeper.Position, out keeper.Outcome) {
	if l.events == nil {
		return
	}
	if err := l.events.PutEvents(ctx, []model.RebalanceEvent{out.Event(p, l.now())}); err != nil {
		l.logger.Warn("write rebalance event failed", zap.String("position", p.Name()), zap.Error(err))
	}
}

func (l *Loop) emit(ctx context.Context, text string) {
	l.logger.Info("report", zap.String("text", text))
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Notify(ctx, text); err != nil {
		l.logger.Warn("notify failed", zap.Error(err))
	}
}

func (l *Loop) reportError(ctx context.Context, err error) {
	l.logger.Error("tick failed", zap.Error(err))
	if l.notifier == nil {
		return
	}
	text := fmt.Sprintf("Error: %v # %s", err, l.now().Format("2006-01-02 15:04:05"))
	if nerr := l.notifier.Notify(ctx, text); nerr != nil {
		l.logger.Warn("notify failed", zap.Error(nerr))
	}
}

// wait sleeps for d and reports false if ctx ended first.
func (l *Loop) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
