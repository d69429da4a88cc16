package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/jwebster45206/cabin-escape/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *storage.MockStorage, *ManualScheduler) {
	t.Helper()
	store := storage.NewMockStorage()
	sched := NewManualScheduler()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(store, logger, WithScheduler(sched))
	e.Start(context.Background())
	return e, store, sched
}

// walk navigates through dirs in order.
func walk(ctx context.Context, e *Engine, dirs ...state.Direction) state.GameState {
	gs := e.State()
	for _, d := range dirs {
		gs = e.Navigate(ctx, d)
	}
	return gs
}

// solveToBoards plays the critical path up to and including breaking the boards.
func solveToBoards(t *testing.T, ctx context.Context, e *Engine) {
	t.Helper()
	e.StartNewGame(ctx)
	walk(ctx, e, state.Left, state.Left)
	_, out := e.UseOn(ctx, state.RuleSearchSink)
	require.True(t, out.Applied)

	walk(ctx, e, state.Right, state.Right, state.Right)
	e.Equip(ctx, state.ItemKey)
	_, out = e.UseOn(ctx, state.RuleUnlockBasement)
	require.True(t, out.Applied)

	walk(ctx, e, state.Right)
	_, out = e.UseOn(ctx, state.RulePickUpKnife)
	require.True(t, out.Applied)

	walk(ctx, e, state.Left, state.Left)
	e.Equip(ctx, state.ItemKnife)
	_, out = e.UseOn(ctx, state.RuleCutCushion)
	require.True(t, out.Applied)

	walk(ctx, e, state.Left)
	e.Equip(ctx, state.ItemCoin)
	_, out = e.UseOn(ctx, state.RuleOpenSafe)
	require.True(t, out.Applied)

	gs := walk(ctx, e, state.Right, state.Right, state.Right, state.Right)
	require.Equal(t, state.SceneExit, gs.Scene)
	e.Equip(ctx, state.ItemAxe)
	_, out = e.UseOn(ctx, state.RuleBreakBoards)
	require.True(t, out.Applied)
	require.True(t, out.Escape)
}

func TestEngine_StartsInitial(t *testing.T) {
	e, store, _ := newTestEngine(t)

	assert.True(t, e.State().Equal(state.Initial()))
	assert.False(t, e.EscapePending())
	assert.Equal(t, 0, store.Saves())
}

func TestEngine_SearchSinkGrantsKey(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	e.StartNewGame(ctx)
	gs := walk(ctx, e, state.Left, state.Left)
	require.Equal(t, state.SceneBathroom, gs.Scene)

	gs, out := e.UseOn(ctx, state.RuleSearchSink)
	assert.True(t, out.Applied)
	assert.Equal(t, state.ItemKey, out.Granted)
	assert.Equal(t, []state.Item{state.ItemKey}, gs.Inventory)
	assert.True(t, gs.Flags.Has(state.FlagSinkSearched))

	saved, err := store.LoadGameState(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.Equal(gs))
}

func TestEngine_UnlockOpensWashingRoom(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	e.StartNewGame(ctx)
	gs := e.Navigate(ctx, state.Right)
	require.Equal(t, state.SceneBasementDoor, gs.Scene)

	gs = e.Navigate(ctx, state.Right)
	assert.Equal(t, state.SceneBasementDoor, gs.Scene, "door is locked")

	e.AddItem(ctx, state.ItemKey)
	e.Equip(ctx, state.ItemKey)
	_, out := e.UseOn(ctx, state.RuleUnlockBasement)
	require.True(t, out.Applied)

	gs = e.Navigate(ctx, state.Right)
	assert.Equal(t, state.SceneWashing, gs.Scene)
}

func TestEngine_FullRunEscapes(t *testing.T) {
	ctx := context.Background()
	e, store, sched := newTestEngine(t)

	var mu sync.Mutex
	var scenes []state.Scene
	e.Subscribe(func(gs state.GameState) {
		mu.Lock()
		defer mu.Unlock()
		scenes = append(scenes, gs.Scene)
	})

	solveToBoards(t, ctx, e)
	assert.True(t, e.EscapePending())
	assert.Equal(t, state.SceneExit, e.State().Scene)
	assert.Equal(t, 1, sched.Pending())

	sched.Advance(DefaultEscapeDelay - time.Millisecond)
	assert.Equal(t, state.SceneExit, e.State().Scene, "escape fires only after the delay")

	sched.Advance(time.Millisecond)
	gs := e.State()
	assert.Equal(t, state.SceneEscaped, gs.Scene)
	assert.False(t, e.EscapePending())
	assert.Equal(t, len(state.Flags), gs.Flags.Len())
	assert.ElementsMatch(t, []state.Item{state.ItemKey, state.ItemKnife, state.ItemCoin, state.ItemAxe}, gs.Inventory)

	saved, err := store.LoadGameState(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, state.SceneEscaped, saved.Scene)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, scenes)
	assert.Equal(t, state.SceneEscaped, scenes[len(scenes)-1])
}

func TestEngine_IgnoresInputWhileEscaping(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	solveToBoards(t, ctx, e)
	saves := store.Saves()
	before := e.State()

	assert.True(t, e.Navigate(ctx, state.Left).Equal(before))
	assert.True(t, e.GoHome(ctx).Equal(before))
	assert.True(t, e.Equip(ctx, state.ItemNone).Equal(before))
	_, out := e.UseOn(ctx, state.RuleBreakBoards)
	assert.False(t, out.Applied)
	assert.Equal(t, state.RuleBreakBoards, out.Rule)
	assert.Equal(t, saves, store.Saves())
}

func TestEngine_ResetCancelsEscape(t *testing.T) {
	ctx := context.Background()
	e, store, sched := newTestEngine(t)

	solveToBoards(t, ctx, e)
	gs := e.Reset(ctx)

	assert.True(t, gs.Equal(state.Initial()))
	assert.False(t, e.EscapePending())
	assert.Equal(t, 0, sched.Pending())

	sched.Advance(time.Second)
	assert.Equal(t, state.SceneHome, e.State().Scene)

	saved, err := store.LoadGameState(ctx)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestEngine_CloseFinishesEscape(t *testing.T) {
	ctx := context.Background()
	e, store, sched := newTestEngine(t)

	solveToBoards(t, ctx, e)
	e.Close()

	assert.Equal(t, state.SceneEscaped, e.State().Scene)
	assert.False(t, e.EscapePending())
	assert.Equal(t, 0, sched.Pending())

	saved, err := store.LoadGameState(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, state.SceneEscaped, saved.Scene)

	// The stopped timer does not fire a second escape.
	saves := store.Saves()
	sched.Advance(time.Second)
	assert.Equal(t, saves, store.Saves())

	// A restart on the same slot resumes the won game.
	restarted := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)), WithScheduler(NewManualScheduler()))
	gs := restarted.Start(ctx)
	assert.Equal(t, state.SceneEscaped, gs.Scene)
	assert.True(t, gs.Flags.Has(state.FlagBoardsCleared))
}

func TestEngine_StartFinishesInterruptedEscape(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	// Stop inside the delay without Close, as a crash would.
	solveToBoards(t, ctx, e)
	saved, err := store.LoadGameState(ctx)
	require.NoError(t, err)
	require.Equal(t, state.SceneExit, saved.Scene)

	restarted := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)), WithScheduler(NewManualScheduler()))
	gs := restarted.Start(ctx)
	assert.Equal(t, state.SceneEscaped, gs.Scene)
	assert.Equal(t, state.SceneExit, gs.LastRoom)
	assert.False(t, restarted.EscapePending())

	saved, err = store.LoadGameState(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.SceneEscaped, saved.Scene)

	restarted.GoHome(ctx)
	assert.Equal(t, state.SceneEscaped, restarted.ContinueGame(ctx).Scene)
}

func TestEngine_ViewListenerPendingMatchesSnapshot(t *testing.T) {
	ctx := context.Background()
	e, _, sched := newTestEngine(t)

	var views []View
	fired := false
	e.SubscribeViews(func(v View) {
		views = append(views, v)
		// Let the timer land before this listener has finished with the
		// breakBoards snapshot.
		if v.EscapePending && !fired {
			fired = true
			sched.Advance(time.Second)
		}
	})

	solveToBoards(t, ctx, e)

	require.GreaterOrEqual(t, len(views), 2)
	boards := views[len(views)-2]
	assert.Equal(t, state.SceneExit, boards.State.Scene)
	assert.True(t, boards.EscapePending)
	assert.True(t, boards.State.Flags.Has(state.FlagBoardsCleared))

	escaped := views[len(views)-1]
	assert.Equal(t, state.SceneEscaped, escaped.State.Scene)
	assert.False(t, escaped.EscapePending)
	assert.Equal(t, "Escaped", escaped.Title)
}

func TestEngine_ResetAfterProgress(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	e.StartNewGame(ctx)
	walk(ctx, e, state.Left, state.Left)
	e.UseOn(ctx, state.RuleSearchSink)
	require.NotZero(t, store.Saves())

	gs := e.Reset(ctx)
	assert.True(t, gs.Equal(state.Initial()))

	saved, err := store.LoadGameState(ctx)
	require.NoError(t, err)
	assert.Nil(t, saved)

	// A fresh engine on the same slot starts from scratch.
	other := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.True(t, other.Start(ctx).Equal(state.Initial()))
}

func TestEngine_UseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	var notified int
	e.Subscribe(func(state.GameState) { notified++ })

	e.StartNewGame(ctx)
	walk(ctx, e, state.Left, state.Left)
	first, out := e.UseOn(ctx, state.RuleSearchSink)
	require.True(t, out.Applied)
	saves := store.Saves()
	count := notified

	second, out := e.UseOn(ctx, state.RuleSearchSink)
	assert.False(t, out.Applied)
	assert.True(t, first.Equal(second))
	assert.Equal(t, saves, store.Saves(), "no-op is not saved")
	assert.Equal(t, count, notified, "no-op is not broadcast")
}

func TestEngine_WrongToolDoesNothing(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	e.StartNewGame(ctx)
	e.AddItem(ctx, state.ItemCoin)
	e.Equip(ctx, state.ItemCoin)

	gs, out := e.UseOn(ctx, state.RuleCutCushion)
	assert.False(t, out.Applied)
	assert.False(t, gs.Flags.Has(state.FlagCushionCut))
	assert.Equal(t, []state.Item{state.ItemCoin}, gs.Inventory)
}

func TestEngine_SaveFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)
	store.SetSaveError(errors.New("disk full"))

	gs := e.StartNewGame(ctx)
	assert.Equal(t, state.SceneDining, gs.Scene)
	gs = e.Navigate(ctx, state.Left)
	assert.Equal(t, state.SceneBedroom, gs.Scene)
	assert.Equal(t, 0, store.Saves())
}

func TestEngine_StartResumesSave(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	saved := state.Initial().AddItem(state.ItemKey).WithScene(state.SceneBedroom)
	saved.Flags = saved.Flags.With(state.FlagSinkSearched)
	require.NoError(t, store.SaveGameState(ctx, &saved))

	e := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	gs := e.Start(ctx)

	assert.True(t, gs.Equal(saved))
}

func TestEngine_StartIgnoresUnusableSave(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*storage.MockStorage)
	}{
		{
			name: "corrupt save",
			setup: func(m *storage.MockStorage) {
				m.SetLoadError(storage.ErrCorruptSave)
			},
		},
		{
			name: "backend down",
			setup: func(m *storage.MockStorage) {
				m.SetLoadError(errors.New("connection refused"))
			},
		},
		{
			name: "unknown scene",
			setup: func(m *storage.MockStorage) {
				gs := state.Initial()
				gs.Scene = "attic"
				_ = m.SaveGameState(context.Background(), &gs)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockStorage()
			tt.setup(store)
			e := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
			assert.True(t, e.Start(context.Background()).Equal(state.Initial()))
		})
	}
}

func TestEngine_ContinueGame(t *testing.T) {
	ctx := context.Background()

	t.Run("no save goes to dining", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		assert.Equal(t, state.SceneDining, e.ContinueGame(ctx).Scene)
	})

	t.Run("returns to last room after home", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		e.StartNewGame(ctx)
		walk(ctx, e, state.Left, state.Left)
		e.GoHome(ctx)

		gs := e.ContinueGame(ctx)
		assert.Equal(t, state.SceneBathroom, gs.Scene)
	})

	t.Run("keeps progress", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		e.StartNewGame(ctx)
		walk(ctx, e, state.Left, state.Left)
		e.UseOn(ctx, state.RuleSearchSink)
		e.GoHome(ctx)

		gs := e.ContinueGame(ctx)
		assert.True(t, gs.Has(state.ItemKey))
		assert.True(t, gs.Flags.Has(state.FlagSinkSearched))
	})

	t.Run("won game returns to escaped", func(t *testing.T) {
		e, _, sched := newTestEngine(t)
		solveToBoards(t, ctx, e)
		sched.Advance(DefaultEscapeDelay)
		e.GoHome(ctx)

		gs := e.ContinueGame(ctx)
		assert.Equal(t, state.SceneEscaped, gs.Scene)
		assert.Equal(t, state.SceneExit, gs.LastRoom)
	})

	t.Run("load failure goes to dining", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		e.StartNewGame(ctx)
		e.Navigate(ctx, state.Left)
		e.GoHome(ctx)
		store.SetLoadError(errors.New("timeout"))

		assert.Equal(t, state.SceneDining, e.ContinueGame(ctx).Scene)
	})
}

func TestEngine_StartNewGameKeepsProgress(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	e.StartNewGame(ctx)
	e.AddItem(ctx, state.ItemCoin)
	e.GoHome(ctx)

	gs := e.StartNewGame(ctx)
	assert.Equal(t, state.SceneDining, gs.Scene)
	assert.True(t, gs.Has(state.ItemCoin))
}

func TestEngine_InventoryOperations(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	e.AddItem(ctx, state.ItemKnife)
	e.AddItem(ctx, state.Item("spoon"))
	gs := e.AddItem(ctx, state.ItemKnife)
	assert.Equal(t, []state.Item{state.ItemKnife}, gs.Inventory)

	gs = e.Equip(ctx, state.ItemKnife)
	assert.Equal(t, state.ItemKnife, gs.Equipped)
	gs = e.Equip(ctx, state.ItemKnife)
	assert.Equal(t, state.ItemNone, gs.Equipped, "selecting again unequips")

	e.Equip(ctx, state.ItemKnife)
	gs = e.RemoveItem(ctx, state.ItemKnife)
	assert.Empty(t, gs.Inventory)
	assert.Equal(t, state.ItemNone, gs.Equipped)
}

func TestEngine_NotifiesOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	var got []state.GameState
	e.Subscribe(func(gs state.GameState) { got = append(got, gs) })

	e.Navigate(ctx, state.Left) // home has no exits
	e.StartNewGame(ctx)
	e.Navigate(ctx, state.Left)

	require.Len(t, got, 2)
	assert.Equal(t, state.SceneDining, got[0].Scene)
	assert.Equal(t, state.SceneBedroom, got[1].Scene)
}

func TestEngine_RealSchedulerFires(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	e := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)), WithEscapeDelay(5*time.Millisecond))
	e.Start(ctx)

	solveToBoards(t, ctx, e)

	assert.Eventually(t, func() bool {
		return e.State().Scene == state.SceneEscaped
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_Dispatch(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	v, err := e.Dispatch(ctx, Intent{Type: IntentNew})
	require.NoError(t, err)
	assert.Equal(t, state.SceneDining, v.State.Scene)
	assert.Equal(t, "Dining Room", v.Title)
	assert.Equal(t, state.RuleCutCushion, v.Rule)

	_, err = e.Dispatch(ctx, Intent{Type: IntentNavigate, Direction: "up"})
	assert.ErrorIs(t, err, ErrUnknownIntent)

	_, err = e.Dispatch(ctx, Intent{Type: "jump"})
	assert.ErrorIs(t, err, ErrUnknownIntent)

	for range 2 {
		_, err = e.Dispatch(ctx, Intent{Type: IntentNavigate, Direction: state.Left})
		require.NoError(t, err)
	}

	v, err = e.Dispatch(ctx, Intent{Type: IntentUse})
	require.NoError(t, err)
	require.NotNil(t, v.Outcome)
	assert.Equal(t, state.RuleSearchSink, v.Outcome.Rule)
	assert.True(t, v.Outcome.Applied)
	assert.Contains(t, v.Description, "already found the key")

	v, err = e.Dispatch(ctx, Intent{Type: IntentEquip, Item: state.ItemKey})
	require.NoError(t, err)
	assert.Equal(t, "Try the key on the basement door.", v.Hint)

	v, err = e.Dispatch(ctx, Intent{Type: IntentReset})
	require.NoError(t, err)
	assert.Equal(t, state.SceneHome, v.State.Scene)
	assert.Nil(t, v.Outcome)
}
