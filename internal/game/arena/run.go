package arena

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ricochet/internal/game/stat"
	"github.com/cory-johannsen/ricochet/internal/observability"
)

// Outcome summarises a finished run.
type Outcome struct {
	// Winner is the last team standing, or empty on a draw or timeout.
	Winner  string
	Elapsed time.Duration
	Steps   int
	// Survivors maps each living character's name to its remaining health.
	Survivors map[string]int
}

// Teams returns the sides that still have a living character, sorted.
// A character without a team is a side of its own.
func (w *World) Teams() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range w.actors {
		s := a.Sheet()
		if !s.Alive() {
			continue
		}
		side := s.Team()
		if side == "" {
			side = s.ID()
		}
		if !seen[side] {
			seen[side] = true
			out = append(out, side)
		}
	}
	sort.Strings(out)
	return out
}

// Done reports whether the round is over: the duration has elapsed or at
// most one side remains.
func (w *World) Done() bool {
	return w.Elapsed() >= w.opts.Simulation.Duration || len(w.Teams()) <= 1
}

// Run steps the world until Done. In realtime mode steps are paced by a
// ticker at the fixed delta; otherwise they run back to back.
//
// Postcondition: Returns the outcome so far together with ctx.Err() when ctx
// is cancelled first.
func (w *World) Run(ctx context.Context) (Outcome, error) {
	steps := 0
	var tick <-chan time.Time
	if w.opts.Simulation.Realtime {
		ticker := time.NewTicker(w.clock.Delta())
		defer ticker.Stop()
		tick = ticker.C
	}
	for !w.Done() {
		if tick != nil {
			select {
			case <-ctx.Done():
				return w.outcome(steps), ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return w.outcome(steps), err
		}
		w.Step()
		steps++
	}
	out := w.outcome(steps)
	w.logger.Info("arena finished",
		zap.String("winner", out.Winner),
		zap.Int("steps", out.Steps),
		zap.Any("survivors", out.Survivors),
		observability.SimTime(out.Elapsed),
	)
	return out, nil
}

func (w *World) outcome(steps int) Outcome {
	out := Outcome{
		Elapsed:   w.Elapsed(),
		Steps:     steps,
		Survivors: make(map[string]int),
	}
	for _, a := range w.actors {
		if s := a.Sheet(); s.Alive() {
			out.Survivors[s.Name()] = s.GetResource(stat.Health)
		}
	}
	if teams := w.Teams(); len(teams) == 1 {
		for _, a := range w.actors {
			if s := a.Sheet(); s.Alive() {
				out.Winner = s.Team()
				if out.Winner == "" {
					out.Winner = s.Name()
				}
				break
			}
		}
	}
	return out
}
