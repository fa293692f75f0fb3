// Package workflow implements the validate-then-persist save operation shared
// by every record type.
//
// A save moves through Idle -> Validating -> Rejected, or
// Idle -> Validating -> Persisting -> Persisted. A rejected or failed save
// never appends to the collection.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/santelink/santelink/internal/platform/form"
	"github.com/santelink/santelink/internal/platform/store"
)

// State of a single save invocation.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StatePersisting State = "persisting"
	StatePersisted  State = "persisted"
	StateFailed     State = "failed"
)

// Result is the discriminated outcome returned to the caller.
type Result struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []form.Issue `json:"errors,omitempty"`
	ID      string       `json:"id,omitempty"`

	State State `json:"-"`
}

// HTTPStatus maps a result to the status code of the save endpoints.
func (r Result) HTTPStatus() int {
	switch {
	case r.Success:
		return http.StatusCreated
	case r.State == StateRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Messages are the fixed human-readable texts of one record type.
type Messages struct {
	Invalid  string
	Saved    string
	Internal string
}

// Notifier is told which views became stale after a successful save.
type Notifier interface {
	Invalidate(ctx context.Context, resourceType, resourceID string, paths ...string) error
}

// Policy configures the persistence boundary.
type Policy struct {
	// Latency is a fixed delay before each persistence attempt.
	Latency time.Duration
	// Timeout bounds the whole boundary, retries included. Zero disables it.
	Timeout time.Duration
	// MaxAttempts is the number of insert attempts for retryable errors.
	MaxAttempts int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

// DefaultPolicy has no simulated latency and retries transient failures
// three times.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		Backoff:     100 * time.Millisecond,
	}
}

// Config wires one record type into a Workflow.
type Config[T any] struct {
	// Kind names the record type in logs and events, e.g. "appointment".
	Kind     string
	Schema   *form.Schema
	Records  store.Collection[T]
	Build    func(id string, v form.Values) T
	Stale    func(rec T, id string) []string
	Messages Messages
	Policy   Policy
	Notifier Notifier
	Logger   zerolog.Logger
}

// Workflow saves records of one type.
type Workflow[T any] struct {
	cfg Config[T]
}

// New returns a workflow. A zero MaxAttempts is treated as one attempt.
func New[T any](cfg Config[T]) *Workflow[T] {
	if cfg.Policy.MaxAttempts < 1 {
		cfg.Policy.MaxAttempts = 1
	}
	return &Workflow[T]{cfg: cfg}
}

// Schema returns the form schema the workflow validates against.
func (w *Workflow[T]) Schema() *form.Schema { return w.cfg.Schema }

// Validate runs only the validation step and reports the result a save
// would return when validation fails. It never touches the collection.
func (w *Workflow[T]) Validate(input map[string]any) Result {
	if _, err := w.cfg.Schema.Validate(input); err != nil {
		return w.rejected(err)
	}
	return Result{Success: true, Message: "valid", State: StateValidating}
}

// Save validates input, appends a new record and signals stale views. The
// saved record is returned alongside the result; it is the zero value
// unless Result.Success is true.
func (w *Workflow[T]) Save(ctx context.Context, input map[string]any) (Result, T) {
	var zero T
	log := w.cfg.Logger.With().Str("kind", w.cfg.Kind).Logger()

	values, err := w.cfg.Schema.Validate(input)
	if err != nil {
		res := w.rejected(err)
		log.Warn().
			Str("state", string(res.State)).
			Interface("errors", res.Errors).
			Msg("save rejected")
		return res, zero
	}

	log.Debug().Str("state", string(StatePersisting)).Msg("persisting record")
	rec, id, err := w.persist(ctx, values)
	if err != nil {
		log.Error().Err(err).Str("state", string(StateFailed)).Msg("save failed")
		return Result{Success: false, Message: w.cfg.Messages.Internal, State: StateFailed}, zero
	}

	log.Info().Str("state", string(StatePersisted)).Str("id", id).Msg("record saved")

	if w.cfg.Notifier != nil && w.cfg.Stale != nil {
		paths := w.cfg.Stale(rec, id)
		if err := w.cfg.Notifier.Invalidate(ctx, w.cfg.Kind, id, paths...); err != nil {
			log.Warn().Err(err).Strs("paths", paths).Msg("view invalidation failed")
		}
	}

	return Result{
		Success: true,
		Message: w.cfg.Messages.Saved,
		ID:      id,
		State:   StatePersisted,
	}, rec
}

func (w *Workflow[T]) rejected(err error) Result {
	res := Result{Success: false, Message: w.cfg.Messages.Invalid, State: StateRejected}
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		res.Errors = verr.Issues
	}
	return res
}

// persist is the I/O boundary: delay, deadline, bounded retries.
func (w *Workflow[T]) persist(ctx context.Context, values form.Values) (T, string, error) {
	var zero T
	p := w.cfg.Policy

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.Backoff*time.Duration(attempt-1)); err != nil {
				return zero, "", fmt.Errorf("retry wait: %w (last error: %v)", err, lastErr)
			}
		}
		if err := sleep(ctx, p.Latency); err != nil {
			return zero, "", fmt.Errorf("persist delay: %w", err)
		}

		rec, id, err := w.insert(ctx, values)
		if err == nil {
			return rec, id, nil
		}
		lastErr = err
		if !store.IsRetryable(err) {
			break
		}
		w.cfg.Logger.Warn().Err(err).Str("kind", w.cfg.Kind).Int("attempt", attempt).Msg("retrying insert")
	}
	return zero, "", lastErr
}

// insert appends one record, turning a panic in Build into an error.
func (w *Workflow[T]) insert(ctx context.Context, values form.Values) (rec T, id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("build %s: panic: %v", w.cfg.Kind, r)
		}
	}()
	rec, err = w.cfg.Records.Insert(ctx, func(newID string) (T, error) {
		id = newID
		return w.cfg.Build(newID, values), nil
	})
	if err != nil {
		return rec, "", fmt.Errorf("insert %s: %w", w.cfg.Kind, err)
	}
	return rec, id, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
