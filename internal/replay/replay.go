// Package replay pushes a reconciled dataset through the aliasing service.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/dbsmedya/goalias/internal/logger"
	"github.com/dbsmedya/goalias/internal/reconcile"
	"github.com/dbsmedya/goalias/internal/types"
)

// ErrPartialFailure is wrapped by Result.Err when at least one alias call failed.
var ErrPartialFailure = errors.New("one or more entries failed to alias")

// Aliaser links previousID to userID in the identity service. Calls for the
// same pair are expected to be idempotent.
type Aliaser interface {
	Alias(ctx context.Context, previousID, userID string) error
}

// AliasFunc adapts a function to Aliaser.
type AliasFunc func(ctx context.Context, previousID, userID string) error

// Alias calls f.
func (f AliasFunc) Alias(ctx context.Context, previousID, userID string) error {
	return f(ctx, previousID, userID)
}

// AliasError is the failure of one alias call.
type AliasError struct {
	Key string
	Old string
	New string
	Err error
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("alias %s (%s -> %s): %v", e.Key, e.Old, e.New, e.Err)
}

func (e *AliasError) Unwrap() error {
	return e.Err
}

// Status is the outcome of one entry.
type Status int

const (
	StatusAliased Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusAliased:
		return "aliased"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome records what happened to one entry.
type Outcome struct {
	Key    string
	Old    string
	New    string
	Status Status
	Err    error // *AliasError when Status is StatusFailed
}

// StatusLine renders the console line for an outcome.
func (o Outcome) StatusLine() string {
	switch o.Status {
	case StatusAliased:
		return fmt.Sprintf("Entity %s has been aliased from %s to %s.", o.Key, o.Old, o.New)
	case StatusSkipped:
		return fmt.Sprintf("Skipped entity %s.", o.Key)
	default:
		return fmt.Sprintf("Entity %s could not be aliased from %s to %s: %v", o.Key, o.Old, o.New, errors.Unwrap(o.Err))
	}
}

// Result summarises one replay.
type Result struct {
	Kind     types.RecordKind
	Outcomes []Outcome
	Aliased  int
	Skipped  int
	Failed   int
}

// Err returns nil when every complete entry aliased cleanly.
func (r *Result) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%s: %d of %d entries: %w", r.Kind.Plural(), r.Failed, r.Aliased+r.Failed, ErrPartialFailure)
}

func (r *Result) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusAliased:
		r.Aliased++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}

// OutcomeFunc is called as soon as an entry is done.
type OutcomeFunc func(Outcome)

// Replayer calls the aliaser once per complete entry.
type Replayer struct {
	aliaser   Aliaser
	logger    *logger.Logger
	onOutcome OutcomeFunc
}

// NewReplayer creates a replayer. onOutcome may be nil.
func NewReplayer(aliaser Aliaser, log *logger.Logger, onOutcome OutcomeFunc) *Replayer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Replayer{
		aliaser:   aliaser,
		logger:    log,
		onOutcome: onOutcome,
	}
}

// Replay walks ds in order. Incomplete entries are skipped without a call.
// A failed call is recorded and the walk continues; check Result.Err.
// The returned error is non-nil only when ctx is cancelled, in which case
// the result holds the outcomes reached so far. Nothing is rolled back.
func (r *Replayer) Replay(ctx context.Context, ds *reconcile.Dataset) (*Result, error) {
	result := &Result{Kind: ds.Kind}
	log := r.logger.WithKind(ds.Kind)

	for _, item := range ds.Items() {
		if err := ctx.Err(); err != nil {
			log.Warnw("Replay interrupted",
				"aliased", result.Aliased,
				"remaining", ds.Len()-len(result.Outcomes),
			)
			return result, err
		}

		o := Outcome{Key: item.Key, Old: item.Old, New: item.New}

		if !item.Complete() {
			o.Status = StatusSkipped
			log.Debugw("Skipping incomplete entry", "key", item.Key, "has_old", item.HasOld, "has_new", item.HasNew)
		} else if err := r.aliaser.Alias(ctx, item.Old, item.New); err != nil {
			o.Status = StatusFailed
			o.Err = &AliasError{Key: item.Key, Old: item.Old, New: item.New, Err: err}
			log.Warnw("Alias failed", "key", item.Key, "old_id", item.Old, "new_id", item.New, "error", err)
		} else {
			o.Status = StatusAliased
			log.Debugw("Aliased", "key", item.Key, "old_id", item.Old, "new_id", item.New)
		}

		result.add(o)
		if r.onOutcome != nil {
			r.onOutcome(o)
		}
	}

	log.Infow("Replay finished",
		"aliased", result.Aliased,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
