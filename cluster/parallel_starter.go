package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dynacluster/dynacluster/tasks"
)

// ParallelStarter is C9: fans a per-member operation out across the task
// framework, awaits every task, and collects per-entity errors rather than
// failing the whole batch (spec §4.9). Grounded on the bounded-worker-pool
// pattern in tasks.WorkerPoolRunner, itself adapted from the teacher's
// ParallelNodeFilter.
type ParallelStarter struct {
	runner tasks.Runner
	logger *slog.Logger
}

// NewParallelStarter builds a starter that fans work out through runner.
func NewParallelStarter(runner tasks.Runner, logger *slog.Logger) *ParallelStarter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParallelStarter{runner: runner, logger: logger}
}

// RunAll submits op(ctx, m) for every member in members as one inessential
// parallel batch, awaits all of them, and returns a map from member to
// error (absent on success). A non-nil second return value is a fatal
// error — context cancellation — that must be propagated immediately
// rather than collected (spec §5: "interruption ... propagated immediately
// as a fatal error").
func (p *ParallelStarter) RunAll(ctx context.Context, members []*Member, op func(ctx context.Context, m *Member) error) (map[*Member]error, error) {
	if len(members) == 0 {
		return map[*Member]error{}, nil
	}

	batch := make([]*tasks.Task, len(members))
	for i, m := range members {
		member := m
		batch[i] = p.runner.Submit(ctx, fmt.Sprintf("member-op-%s", member.ID), func(ctx context.Context) error {
			return op(ctx, member)
		}).MarkInessential()
	}

	results := p.runner.AwaitAll(ctx, batch)

	out := make(map[*Member]error, len(members))
	for i, m := range members {
		err := results[i]
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return out, fmt.Errorf("parallel start interrupted: %w", err)
		}
		p.logger.Error("member operation failed", "member", m.ID, "error", err)
		p.logger.Debug("member operation failure detail", "member", m.ID, "error", fmt.Sprintf("%+v", err))
		out[m] = err
	}
	return out, nil
}
