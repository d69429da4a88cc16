package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/jwebster45206/cabin-escape/pkg/storage"
)

const (
	// DefaultEscapeDelay lets the broken-boards cue play before the scene switches.
	DefaultEscapeDelay = 450 * time.Millisecond

	saveTimeout = 2 * time.Second
)

// Listener receives every new state snapshot.
type Listener func(state.GameState)

// ViewListener receives the view of every new snapshot. EscapePending is
// taken together with the snapshot, not when the listener runs.
type ViewListener func(View)

// Engine owns the mutable game state. Every operation runs to completion
// under a lock, saves the new snapshot and notifies listeners. Invalid
// operations are silent no-ops; no operation returns an error.
type Engine struct {
	mu        sync.Mutex
	gs        state.GameState
	store     storage.Storage
	logger    *slog.Logger
	scheduler Scheduler
	delay     time.Duration
	escape    *pendingEscape
	listeners []Listener
	views     []ViewListener
}

// pendingEscape is the scheduled switch to the escaped scene. The token is
// compared when the timer fires so a cancelled escape can never land.
type pendingEscape struct {
	token uuid.UUID
	timer Timer
}

// Option configures an Engine.
type Option func(*Engine)

// WithEscapeDelay sets how long the escape transition is deferred.
func WithEscapeDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.scheduler = s
		}
	}
}

// New creates an engine in the initial state. Call Start to resume a save.
func New(store storage.Storage, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		gs:        state.Initial(),
		store:     store,
		logger:    logger,
		scheduler: realScheduler{},
		delay:     DefaultEscapeDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start loads the save slot into memory. A missing or unreadable save leaves
// the engine in the initial state.
func (e *Engine) Start(ctx context.Context) state.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gs = state.Initial()
	saved := e.load(ctx)
	if saved == nil {
		e.logger.Info("Starting new game")
		return e.gs.Clone()
	}
	gs, ok := saved.Normalize()
	if !ok {
		e.logger.Warn("Ignoring unusable save", "scene", saved.Scene)
		return e.gs.Clone()
	}
	// Boards down but still on the exit: the process stopped inside the
	// escape delay.
	if gs.Scene == state.SceneExit && gs.Flags.Has(state.FlagBoardsCleared) {
		gs = gs.WithScene(state.SceneEscaped)
		e.save(ctx, gs)
		e.logger.Info("Finished interrupted escape")
	}
	e.gs = gs
	e.logger.Info("Resumed saved game",
		"scene", gs.Scene,
		"inventory", gs.Inventory,
		"flags", gs.Flags.Len())
	return e.gs.Clone()
}

// State returns a copy of the current state.
func (e *Engine) State() state.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gs.Clone()
}

// EscapePending reports whether the deferred escape has been scheduled but
// has not fired yet.
func (e *Engine) EscapePending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.escape != nil
}

// Subscribe registers fn to receive every new snapshot. Listeners run on the
// goroutine that made the change, after the engine lock is released.
func (e *Engine) Subscribe(fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// SubscribeViews registers fn to receive the view of every new snapshot.
func (e *Engine) SubscribeViews(fn ViewListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.views = append(e.views, fn)
}

// Navigate moves left or right through the room graph.
func (e *Engine) Navigate(ctx context.Context, d state.Direction) state.GameState {
	return e.update(ctx, "navigate", func(gs state.GameState) state.GameState {
		return gs.Navigate(d)
	})
}

// GoHome returns to the home screen.
func (e *Engine) GoHome(ctx context.Context) state.GameState {
	return e.update(ctx, "home", state.GameState.GoHome)
}

// StartNewGame enters the dining room, keeping any progress in memory.
func (e *Engine) StartNewGame(ctx context.Context) state.GameState {
	return e.update(ctx, "new", state.GameState.StartNewGame)
}

// ContinueGame returns to the room recorded in the save slot, or to the
// escaped screen once the game is won. Only the scene changes; the in-memory
// progress already matches the autosave.
func (e *Engine) ContinueGame(ctx context.Context) state.GameState {
	return e.update(ctx, "continue", func(gs state.GameState) state.GameState {
		return gs.WithScene(e.resumeScene(ctx, gs))
	})
}

func (e *Engine) resumeScene(ctx context.Context, current state.GameState) state.Scene {
	saved := e.load(ctx)
	if saved == nil {
		return state.SceneDining
	}
	switch {
	case current.Flags.Has(state.FlagBoardsCleared):
		return state.SceneEscaped
	case saved.Scene.Playable():
		return saved.Scene
	case saved.LastRoom.Playable():
		return saved.LastRoom
	}
	return state.SceneDining
}

// Equip selects item as the active tool, or clears the slot for ItemNone or
// the already equipped item.
func (e *Engine) Equip(ctx context.Context, item state.Item) state.GameState {
	return e.update(ctx, "equip", func(gs state.GameState) state.GameState {
		return gs.Equip(item)
	})
}

// AddItem grants item to the player.
func (e *Engine) AddItem(ctx context.Context, item state.Item) state.GameState {
	return e.update(ctx, "add_item", func(gs state.GameState) state.GameState {
		if !item.Valid() {
			return gs
		}
		return gs.AddItem(item)
	})
}

// RemoveItem takes item from the player.
func (e *Engine) RemoveItem(ctx context.Context, item state.Item) state.GameState {
	return e.update(ctx, "remove_item", func(gs state.GameState) state.GameState {
		return gs.RemoveItem(item)
	})
}

// UseOn applies the equipped item (or bare hands) to the object of rule id.
// Breaking the boards schedules the escape transition.
func (e *Engine) UseOn(ctx context.Context, id state.RuleID) (state.GameState, state.Outcome) {
	outcome := state.Outcome{Rule: id}
	gs := e.update(ctx, "use", func(gs state.GameState) state.GameState {
		next, out := state.Apply(gs, id)
		outcome = out
		if !out.Applied {
			e.logger.Debug("Nothing happens", "rule", id, "scene", gs.Scene, "equipped", gs.Equipped)
			return gs
		}
		e.logger.Info("Puzzle solved", "rule", id, "granted", out.Granted)
		if out.Escape {
			e.scheduleEscape()
		}
		return next
	})
	return gs, outcome
}

// Reset empties the save slot, cancels a pending escape and returns to the
// initial state. The initial state is not saved, so the slot stays empty
// until the next change.
func (e *Engine) Reset(ctx context.Context) state.GameState {
	e.mu.Lock()
	e.cancelEscape()
	if err := e.withStore(ctx, e.store.DeleteGameState); err != nil {
		e.logger.Warn("Failed to clear save", "error", err)
	}
	e.gs = state.Initial()
	n := e.noticeLocked()
	e.mu.Unlock()

	e.logger.Info("Game reset")
	n.send()
	return n.gs.Clone()
}

// Close lands a pending escape now instead of waiting for the timer, so a
// shutdown inside the delay still saves the escaped scene. The engine stays
// usable.
func (e *Engine) Close() {
	e.mu.Lock()
	p := e.escape
	if p != nil {
		p.timer.Stop()
	}
	e.mu.Unlock()

	if p != nil {
		e.fireEscape(p.token)
	}
}

// update applies fn to the current state. While the escape is pending all
// input is ignored.
func (e *Engine) update(ctx context.Context, op string, fn func(state.GameState) state.GameState) state.GameState {
	e.mu.Lock()
	if e.escape != nil {
		gs := e.gs.Clone()
		e.mu.Unlock()
		e.logger.Debug("Ignoring input while escaping", "op", op)
		return gs
	}

	prev := e.gs
	next := fn(prev.Clone())
	changed := !next.Equal(prev)
	if changed {
		e.gs = next
		e.save(ctx, next)
	}
	n := e.noticeLocked()
	e.mu.Unlock()

	if changed {
		e.logger.Debug("State changed", "op", op, "scene", n.gs.Scene, "equipped", n.gs.Equipped)
		n.send()
	}
	return n.gs.Clone()
}

// scheduleEscape must be called with e.mu held.
func (e *Engine) scheduleEscape() {
	token := uuid.New()
	e.escape = &pendingEscape{
		token: token,
		timer: e.scheduler.AfterFunc(e.delay, func() { e.fireEscape(token) }),
	}
	e.logger.Debug("Escape scheduled", "token", token, "delay", e.delay)
}

// cancelEscape must be called with e.mu held.
func (e *Engine) cancelEscape() {
	if e.escape == nil {
		return
	}
	e.escape.timer.Stop()
	e.logger.Debug("Escape cancelled", "token", e.escape.token)
	e.escape = nil
}

func (e *Engine) fireEscape(token uuid.UUID) {
	e.mu.Lock()
	if e.escape == nil || e.escape.token != token {
		e.mu.Unlock()
		return
	}
	e.escape = nil
	e.gs = e.gs.WithScene(state.SceneEscaped)
	e.save(context.Background(), e.gs)
	n := e.noticeLocked()
	e.mu.Unlock()

	e.logger.Info("Player escaped")
	n.send()
}

// save is fire-and-forget: failures are logged and swallowed.
func (e *Engine) save(ctx context.Context, gs state.GameState) {
	snapshot := gs.Clone()
	err := e.withStore(ctx, func(ctx context.Context) error {
		return e.store.SaveGameState(ctx, &snapshot)
	})
	if err != nil {
		e.logger.Warn("Failed to save game", "error", err)
	}
}

// load returns nil on a missing or unreadable save.
func (e *Engine) load(ctx context.Context) *state.GameState {
	var gs *state.GameState
	err := e.withStore(ctx, func(ctx context.Context) error {
		var err error
		gs, err = e.store.LoadGameState(ctx)
		return err
	})
	if err != nil {
		e.logger.Warn("Failed to load save", "error", err)
		return nil
	}
	return gs
}

// withStore bounds a storage call. Cancelling the caller does not abort a
// save that is already in flight.
func (e *Engine) withStore(ctx context.Context, fn func(context.Context) error) error {
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	return fn(c)
}

// notice is everything listeners need, captured under the lock.
type notice struct {
	gs        state.GameState
	pending   bool
	listeners []Listener
	views     []ViewListener
}

// noticeLocked must be called with e.mu held.
func (e *Engine) noticeLocked() notice {
	return notice{
		gs:        e.gs.Clone(),
		pending:   e.escape != nil,
		listeners: e.listeners,
		views:     e.views,
	}
}

func (n notice) send() {
	for _, fn := range n.listeners {
		fn(n.gs.Clone())
	}
	for _, fn := range n.views {
		fn(NewView(n.gs.Clone(), n.pending))
	}
}
