package storage

import (
	"context"
	"errors"

	"liquidityKeeper/internal/model"
)

// EventSink receives rebalance events.
type EventSink interface {
	PutEvents(ctx context.Context, events []model.RebalanceEvent) error
}

// PositionSaver persists the full position list.
type PositionSaver interface {
	SavePositions(ctx context.Context, positions []model.PositionRecord) error
}

// EventSinks fans events out to every sink and joins their errors.
type EventSinks []EventSink

func (s EventSinks) PutEvents(ctx context.Context, events []model.RebalanceEvent) error {
	var errs []error
	for _, sink := range s {
		if err := sink.PutEvents(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PositionSavers saves the list through every saver and joins their errors.
type PositionSavers []PositionSaver

func (s PositionSavers) SavePositions(ctx context.Context, positions []model.PositionRecord) error {
	var errs []error
	for _, saver := range s {
		if err := saver.SavePositions(ctx, positions); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
