// Package dashboard serves score snapshots of a school, once or live.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/core/school"
	"github.com/carbonschool/dashboard/core/score"
)

type (
	Snapshot struct {
		SchoolID  string       `json:"school_id"`
		Scores    score.Scores `json:"scores"`
		Signal    score.Signal `json:"signal"`
		UpdatedAt *time.Time   `json:"updated_at"`
	}

	Schools interface {
		Load(ctx context.Context, id string) (school.Record, error)
		Watch(id string) (<-chan struct{}, func())
	}

	Service struct {
		schools    Schools
		thresholds score.Thresholds
		cutoffs    score.Cutoffs
		logger     core.Logger
	}
)

func NewService(conf *core.Config, schools Schools, logger core.Logger) *Service {
	return &Service{
		schools:    schools,
		thresholds: score.ThresholdsFromConfig(conf),
		cutoffs:    score.CutoffsFromConfig(conf),
		logger:     logger,
	}
}

func (svc *Service) snapshot(rec school.Record) Snapshot {
	scores := score.Compute(rec, svc.thresholds)
	return Snapshot{
		SchoolID:  rec.ID,
		Scores:    scores,
		Signal:    score.SignalFor(scores.Sum, svc.cutoffs),
		UpdatedAt: rec.UpdatedAt,
	}
}

func (svc *Service) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	rec, err := svc.schools.Load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return svc.snapshot(rec), nil
}

// Subscribe streams snapshots of a school: the current one first, then one after
// each saved change. A slow reader only gets the latest snapshot.
// The channel is closed once ctx is done.
func (svc *Service) Subscribe(ctx context.Context, id string) (<-chan Snapshot, error) {
	changes, cancel := svc.schools.Watch(id)

	first, err := svc.Snapshot(ctx, id)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan Snapshot, 1)
	out <- first

	go func() {
		defer close(out)
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				snap, err := svc.Snapshot(ctx, id)
				if err != nil {
					if errors.Cause(err) != context.Canceled {
						svc.logger.Error(fmt.Sprintf("dashboard.Subscribe: %v", err), err)
					}
					continue
				}
				offer(out, snap)
			}
		}
	}()
	return out, nil
}

// offer replaces a pending snapshot with s. out has a single writer.
func offer(out chan Snapshot, s Snapshot) {
	for {
		select {
		case out <- s:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
