package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Sink receives notifications after the engine committed the state change
// they describe. A Sink failure never rolls the change back.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

// LogSink writes every event to slog at debug level, defeats and combos at info.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, ev Event) error {
	level := slog.LevelDebug
	switch ev.Kind {
	case KindTargetDefeated, KindCombo, KindElementalCombo, KindBattleStarted, KindBattleEnded:
		level = slog.LevelInfo
	}
	slog.Log(ctx, level, "combat event",
		"kind", ev.Kind,
		"character", ev.CharacterID,
		"target", ev.TargetID,
		"battle", ev.BattleID,
		"move", ev.MoveID,
		"ability", ev.AbilityID,
		"detail", ev.Detail,
		"amount", ev.Amount)
	return nil
}

// Fanout publishes each event to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishAll sends events in order through sink, logging failures.
func PublishAll(ctx context.Context, sink Sink, events []Event) {
	if sink == nil {
		return
	}
	for _, ev := range events {
		if err := sink.Publish(ctx, ev); err != nil {
			slog.Warn("publishing combat event",
				"kind", ev.Kind,
				"character", ev.CharacterID,
				"error", err)
		}
	}
}
