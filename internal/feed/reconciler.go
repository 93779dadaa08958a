package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type transitionKind int

const (
	transitionAdd transitionKind = iota
	transitionRemove
	transitionReplace
)

type transition struct {
	kind     transitionKind
	from     ReactionKind
	fromId   string
	to       ReactionKind
	optimism string
}

func planTransition(state ReactionState, kind ReactionKind) transition {
	if state.UserReaction == nil {
		return transition{kind: transitionAdd, to: kind, optimism: NewTempId()}
	}

	if *state.UserReaction == kind {
		return transition{kind: transitionRemove, from: kind, fromId: state.UserReactionId}
	}

	return transition{
		kind:     transitionReplace,
		from:     *state.UserReaction,
		fromId:   state.UserReactionId,
		to:       kind,
		optimism: NewTempId(),
	}
}

func (t transition) apply(state ReactionState, reactionId string) ReactionState {
	next := state.Clone()

	switch t.kind {
	case transitionAdd:
		next.increment(t.to)
	case transitionRemove:
		next.decrement(t.from)
	case transitionReplace:
		next.decrement(t.from)
		next.increment(t.to)
	}

	if t.kind == transitionRemove {
		next.UserReaction = nil
		next.UserReactionId = ""
	} else {
		to := t.to
		next.UserReaction = &to
		next.UserReactionId = reactionId
	}

	return next
}

type ReconcilerConfig struct {
	UserId         string
	RequestTimeout time.Duration
	BusyPolicy     BusyPolicy
}

// Reconciler keeps each post's reaction state consistent with the server.
// At most one React or Resync per post runs at a time for the configured user.
type Reconciler struct {
	api    ReactionAPI
	log    *zap.Logger
	config ReconcilerConfig
	guard  *KeyedGuard

	mu      sync.Mutex
	states  map[string]ReactionState
	tracker *tracker

	// versions holds the newest pushed summary version applied per post.
	versions map[string]int64
}

func NewReconciler(api ReactionAPI, log *zap.Logger, config ReconcilerConfig) *Reconciler {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}

	return &Reconciler{
		api:      api,
		log:      log,
		config:   config,
		guard:    NewKeyedGuard(),
		states:   make(map[string]ReactionState),
		tracker:  newTracker(),
		versions: make(map[string]int64),
	}
}

func (reconciler *Reconciler) key(postId string) string {
	return postId + "/" + reconciler.config.UserId
}

func (reconciler *Reconciler) State(postId string) ReactionState {
	reconciler.mu.Lock()
	defer reconciler.mu.Unlock()

	return reconciler.states[postId].Clone()
}

func (reconciler *Reconciler) Seed(postId string, state ReactionState) {
	reconciler.mu.Lock()
	defer reconciler.mu.Unlock()

	reconciler.states[postId] = state.Clone()
}

func (reconciler *Reconciler) Pending(postId string) bool {
	return reconciler.guard.Busy(reconciler.key(postId))
}

// React toggles, adds or replaces the user's reaction on postId. The change is
// visible through State immediately and is reverted exactly if the request fails.
func (reconciler *Reconciler) React(ctx context.Context, postId string, kind ReactionKind) (ReactionState, error) {
	if !kind.Valid() {
		return ReactionState{}, newValidationError("Reaction kind is not supported", "kind")
	}

	key := reconciler.key(postId)
	release, err := reconciler.guard.enter(ctx, key, reconciler.config.BusyPolicy)
	if err != nil {
		return ReactionState{}, err
	}
	defer release()

	reconciler.mu.Lock()
	before := reconciler.states[postId].Clone()
	step := planTransition(before, kind)
	reconciler.states[postId] = step.apply(before, step.optimism)
	op := reconciler.tracker.begin(postId, key)
	reconciler.mu.Unlock()

	requestCtx, cancel := context.WithTimeout(ctx, reconciler.config.RequestTimeout)
	defer cancel()

	reactionId, err := reconciler.execute(requestCtx, postId, step)

	restored := before
	if err != nil {
		restored = reconciler.fallback(postId, before, step, err)
	}

	reconciler.mu.Lock()
	defer reconciler.mu.Unlock()

	if !reconciler.tracker.current(op) {
		reconciler.tracker.finish(op, OpAbandoned)
		reconciler.log.Debug("dropping reaction response for closed post", zap.String("postId", postId), zap.Uint64("requestId", op.RequestId))
		return ReactionState{}, ErrStaleResponse
	}

	if err != nil {
		reconciler.states[postId] = restored
		reconciler.tracker.finish(op, OpRolledBack)
		reconciler.log.Warn("reaction rolled back",
			zap.String("postId", postId),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		return restored.Clone(), err
	}

	confirmed := step.apply(before, reactionId)
	reconciler.states[postId] = confirmed
	reconciler.tracker.finish(op, OpConfirmed)

	return confirmed.Clone(), nil
}

func (reconciler *Reconciler) execute(ctx context.Context, postId string, step transition) (string, error) {
	switch step.kind {
	case transitionAdd:
		return reconciler.api.CreateReaction(ctx, postId, reconciler.config.UserId, step.to)
	case transitionRemove:
		return "", reconciler.api.DeleteReaction(ctx, postId, step.fromId)
	}

	if replacer, ok := reconciler.api.(ReactionReplacer); ok {
		return replacer.ReplaceReaction(ctx, postId, step.fromId, step.to)
	}

	err := reconciler.api.DeleteReaction(ctx, postId, step.fromId)
	if err != nil {
		return "", err
	}

	reactionId, err := reconciler.api.CreateReaction(ctx, postId, reconciler.config.UserId, step.to)
	if err != nil {
		return "", &partialReplaceError{err: err}
	}

	return reactionId, nil
}

// partialReplaceError means the old reaction is gone on the server but the new one was not created.
type partialReplaceError struct {
	err error
}

func (e *partialReplaceError) Error() string {
	return fmt.Sprintf("reaction replaced only partially: %v", e.err)
}

func (e *partialReplaceError) Unwrap() error {
	return e.err
}

// fallback computes the state to return to after a failed request. It is the
// pre-transition state, except when a delete-then-create replace stopped
// halfway: the old kind is then recreated on the server so the restored state
// is true again.
func (reconciler *Reconciler) fallback(postId string, before ReactionState, step transition, err error) ReactionState {
	var partial *partialReplaceError
	if !errors.As(err, &partial) {
		return before
	}

	ctx, cancel := context.WithTimeout(context.Background(), reconciler.config.RequestTimeout)
	defer cancel()

	reactionId, createErr := reconciler.api.CreateReaction(ctx, postId, reconciler.config.UserId, step.from)
	if createErr != nil {
		reconciler.log.Warn("failed to restore previous reaction, local state is stale until resync",
			zap.String("postId", postId),
			zap.Error(createErr),
		)
		return before
	}

	restored := before.Clone()
	restored.UserReactionId = reactionId

	return restored
}

// Resync replaces the local state with the server summary. It waits for any
// outstanding React on the same post.
func (reconciler *Reconciler) Resync(ctx context.Context, postId string) (ReactionState, error) {
	release, err := reconciler.guard.Acquire(ctx, reconciler.key(postId))
	if err != nil {
		return ReactionState{}, err
	}
	defer release()

	reconciler.mu.Lock()
	op := reconciler.tracker.begin(postId, reconciler.key(postId))
	reconciler.mu.Unlock()

	requestCtx, cancel := context.WithTimeout(ctx, reconciler.config.RequestTimeout)
	defer cancel()

	state, err := reconciler.api.ReactionSummary(requestCtx, postId)

	reconciler.mu.Lock()
	defer reconciler.mu.Unlock()

	if !reconciler.tracker.current(op) {
		reconciler.tracker.finish(op, OpAbandoned)
		return ReactionState{}, ErrStaleResponse
	}

	if err != nil {
		reconciler.tracker.finish(op, OpRolledBack)
		return reconciler.states[postId].Clone(), err
	}

	reconciler.states[postId] = state.Clone()
	reconciler.tracker.finish(op, OpConfirmed)

	return state.Clone(), nil
}

// ApplySummary takes counts pushed by the server and reports whether they were
// used. Counts are dropped for a post without state, when version is not newer
// than one already applied, and while the user's own request for the post is
// outstanding: that request's result wins. A zero version is always newer.
func (reconciler *Reconciler) ApplySummary(postId string, version int64, summary map[ReactionKind]int, total int) bool {
	reconciler.mu.Lock()
	defer reconciler.mu.Unlock()

	current, ok := reconciler.states[postId]
	if !ok || reconciler.guard.Busy(reconciler.key(postId)) {
		return false
	}

	if version > 0 {
		if version <= reconciler.versions[postId] {
			return false
		}
		reconciler.versions[postId] = version
	}

	state := current.Clone()
	state.Summary = make(map[ReactionKind]int, len(summary))
	for kind, count := range summary {
		if count > 0 {
			state.Summary[kind] = count
		}
	}
	state.Total = total
	reconciler.states[postId] = state

	return true
}

func (reconciler *Reconciler) Detach(postId string) {
	reconciler.mu.Lock()
	defer reconciler.mu.Unlock()

	reconciler.tracker.invalidate(postId)
	delete(reconciler.states, postId)
	delete(reconciler.versions, postId)
}
