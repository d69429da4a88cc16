package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/cabin-escape/internal/logger"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/jwebster45206/cabin-escape/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolutionEscapes(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()

	err := run(ctx, store, logger.Discard(), func(e *engine.Engine, s *engine.ManualScheduler) error {
		v, err := play(ctx, e, s, solution)
		require.NoError(t, err)
		assert.Equal(t, state.SceneEscaped, v.State.Scene)
		assert.Equal(t, len(state.Flags), v.State.Flags.Len())
		return nil
	})
	require.NoError(t, err)

	saved, err := store.LoadGameState(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, state.SceneEscaped, saved.Scene)
}

func TestPlay_RejectsUnknownIntent(t *testing.T) {
	ctx := context.Background()
	err := run(ctx, storage.NewMockStorage(), logger.Discard(), func(e *engine.Engine, s *engine.ManualScheduler) error {
		_, err := play(ctx, e, s, []string{"new", "dance"})
		return err
	})
	assert.ErrorIs(t, err, engine.ErrUnknownIntent)
}

func TestApp_PlayThenShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("SAVE_FILE", filepath.Join(dir, "save.json"))

	var out bytes.Buffer
	app := newApp(&out)
	require.NoError(t, app.Run(context.Background(), []string{"cabinctl", "play", "new", "left"}))
	assert.Contains(t, out.String(), "Bedroom")

	out.Reset()
	app = newApp(&out)
	require.NoError(t, app.Run(context.Background(), []string{"cabinctl", "--json", "show"}))

	var v engine.View
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.Equal(t, state.SceneBedroom, v.State.Scene)

	out.Reset()
	app = newApp(&out)
	require.NoError(t, app.Run(context.Background(), []string{"cabinctl", "reset"}))
	assert.Contains(t, out.String(), "cleared")
}

func TestApp_PlayNeedsIntents(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(), []string{"cabinctl", "play"})
	assert.Error(t, err)
}
