package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tradelens/hts-tracker/internal/hscode"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// AttemptState is a step of the tracking workflow.
type AttemptState string

const (
	StateIdle                AttemptState = "Idle"
	StateValidating          AttemptState = "Validating"
	StateCheckingEntitlement AttemptState = "CheckingEntitlement"
	StateNotifying           AttemptState = "Notifying"
	StatePersisting          AttemptState = "Persisting"
	StateDone                AttemptState = "Done"
	StateFailed              AttemptState = "Failed"
)

// DescriptionLookup resolves the description of a reference code.
type DescriptionLookup interface {
	GetDescription(ctx context.Context, hsCode string) (string, error)
}

// SubscriptionProvider returns the user's active subscription, or nil when there is none.
type SubscriptionProvider interface {
	GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error)
}

// TrackedCodeRepository persists (user, code) pairs.
type TrackedCodeRepository interface {
	Exists(ctx context.Context, userID, hsCode string) (bool, error)
	Create(ctx context.Context, code *model.TrackedCode) error
	Delete(ctx context.Context, userID, hsCode string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]model.TrackedCodeView, error)
}

// TrackingNotifier announces a newly tracked code to the automation endpoint.
type TrackingNotifier interface {
	Notify(ctx context.Context, hsCode, description string, direction model.TradeDirection) error
}

// Session is the caller's resolved identity. Subscription caches the active
// subscription once looked up; it may be nil.
type Session struct {
	UserID       string
	Subscription *model.Subscription
}

// Attempt records one run of the tracking workflow.
type Attempt struct {
	UserID    string
	HSCode    string
	Direction model.TradeDirection
	State     AttemptState
	Path      []AttemptState
	Entry     *model.TrackedCodeView
	Failure   error
}

func newAttempt(userID, hsCode string, direction model.TradeDirection) *Attempt {
	return &Attempt{
		UserID:    userID,
		HSCode:    hsCode,
		Direction: direction,
		State:     StateIdle,
		Path:      []AttemptState{StateIdle},
	}
}

func (a *Attempt) transition(state AttemptState) {
	a.State = state
	a.Path = append(a.Path, state)
}

func (a *Attempt) fail(err error) error {
	a.Failure = err
	a.transition(StateFailed)
	return err
}

// attemptGuard allows one in-flight tracking attempt per user.
type attemptGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func (g *attemptGuard) acquire(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[userID]; busy {
		return false
	}
	g.active[userID] = struct{}{}
	return true
}

func (g *attemptGuard) release(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, userID)
}

func (g *attemptGuard) busy(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[userID]
	return ok
}

// TrackingWorkflow adds and removes tracked codes for a user.
type TrackingWorkflow struct {
	codes      DescriptionLookup
	subs       SubscriptionProvider
	repo       TrackedCodeRepository
	notifier   TrackingNotifier
	watchlists *WatchlistCache
	guard      *attemptGuard
	now        func() time.Time
}

func NewTrackingWorkflow(codes DescriptionLookup, subs SubscriptionProvider, repo TrackedCodeRepository, notifier TrackingNotifier, watchlists *WatchlistCache) *TrackingWorkflow {
	if watchlists == nil {
		watchlists = NewWatchlistCache()
	}
	return &TrackingWorkflow{
		codes:      codes,
		subs:       subs,
		repo:       repo,
		notifier:   notifier,
		watchlists: watchlists,
		guard:      &attemptGuard{active: make(map[string]struct{})},
		now:        time.Now,
	}
}

// InProgress reports whether the user has a tracking attempt running.
func (w *TrackingWorkflow) InProgress(userID string) bool {
	return w.guard.busy(userID)
}

// Track validates the code, checks the user's entitlement and that the code is not
// already tracked, announces it to the automation endpoint and finally stores it.
// Nothing is stored when the announcement fails. A stored entry is never rolled back:
// when storage fails after a successful announcement the error is PersistenceError.
// The attempt runs to completion even if ctx is cancelled by the caller.
func (w *TrackingWorkflow) Track(ctx context.Context, sess *Session, hsCode string, direction model.TradeDirection) (*Attempt, error) {
	ctx = context.WithoutCancel(ctx)
	attempt := newAttempt(sess.UserID, hsCode, direction)

	if !w.guard.acquire(sess.UserID) {
		return attempt, attempt.fail(model.NewError(model.KindAttemptInProgress, "", nil))
	}
	defer w.guard.release(sess.UserID)

	attempt.transition(StateValidating)
	code, err := hscode.ValidateTrackable(hsCode)
	if err != nil {
		return attempt, attempt.fail(err)
	}
	attempt.HSCode = code
	if !direction.Valid() {
		return attempt, attempt.fail(model.NewError(model.KindInvalidArgument, `Invalid trade type. Must be "Import" or "Export".`, nil))
	}

	attempt.transition(StateCheckingEntitlement)
	sub, err := w.activeSubscription(ctx, sess)
	if err != nil {
		return attempt, attempt.fail(model.NewError(model.KindUnknown, "", err))
	}
	if !sub.Active() {
		return attempt, attempt.fail(model.NewError(model.KindNoActiveSubscription, "", nil))
	}

	exists, err := w.repo.Exists(ctx, sess.UserID, code)
	if err != nil {
		return attempt, attempt.fail(model.NewError(model.KindUnknown, "", err))
	}
	if exists {
		return attempt, attempt.fail(model.NewError(model.KindAlreadyTracked, "", nil))
	}

	description, err := w.codes.GetDescription(ctx, code)
	if err != nil {
		slog.WarnContext(ctx, "failed to look up HS code description",
			"hsCode", code,
			"error", err)
		description = model.DescriptionNotAvailable
	}

	attempt.transition(StateNotifying)
	if err := w.notifier.Notify(ctx, code, description, direction); err != nil {
		var classified *model.TrackingError
		if !errors.As(err, &classified) {
			err = model.NewError(model.KindUnknown, "", err)
		}
		return attempt, attempt.fail(err)
	}

	attempt.transition(StatePersisting)
	row := &model.TrackedCode{
		UserID:         sess.UserID,
		HSCodeID:       code,
		SubscriptionID: sub.ID,
		TradeType:      direction,
	}
	if err := w.repo.Create(ctx, row); err != nil {
		slog.ErrorContext(ctx, "HS code announced but not stored",
			"userID", sess.UserID,
			"hsCode", code,
			"tradeType", direction,
			"error", err)
		// the insert may still have committed
		w.watchlists.Invalidate(sess.UserID)
		return attempt, attempt.fail(model.NewError(model.KindPersistenceError, "", err))
	}

	trackedAt := row.CreatedAt
	if trackedAt.IsZero() {
		trackedAt = w.now().UTC()
	}
	entry := model.TrackedCodeView{
		HSCode:      code,
		Description: description,
		TradeType:   direction,
		TrackedAt:   trackedAt,
	}
	w.watchlists.Add(sess.UserID, entry)
	attempt.Entry = &entry
	attempt.transition(StateDone)

	slog.InfoContext(ctx, "HS code tracked",
		"userID", sess.UserID,
		"hsCode", code,
		"tradeType", direction)
	return attempt, nil
}

// Untrack removes a tracked code. No webhook is sent.
func (w *TrackingWorkflow) Untrack(ctx context.Context, sess *Session, hsCode string) error {
	code, err := hscode.ValidateTrackable(hsCode)
	if err != nil {
		return err
	}

	deleted, err := w.repo.Delete(ctx, sess.UserID, code)
	if err != nil {
		return model.NewError(model.KindPersistenceError, "Failed to remove HTS code", err)
	}
	if deleted == 0 {
		return model.NewError(model.KindNotFound, "This HTS code is not in your list", nil)
	}

	w.watchlists.Remove(sess.UserID, code)
	slog.InfoContext(ctx, "HS code untracked", "userID", sess.UserID, "hsCode", code)
	return nil
}

// List returns the user's tracked codes with descriptions.
func (w *TrackingWorkflow) List(ctx context.Context, sess *Session) ([]model.TrackedCodeView, error) {
	return w.watchlists.Get(ctx, sess.UserID, func(ctx context.Context) ([]model.TrackedCodeView, error) {
		return w.repo.ListByUser(ctx, sess.UserID)
	})
}

func (w *TrackingWorkflow) activeSubscription(ctx context.Context, sess *Session) (*model.Subscription, error) {
	if sess.Subscription.Active() {
		return sess.Subscription, nil
	}
	sub, err := w.subs.GetActiveSubscription(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.Subscription = sub
	return sub, nil
}
