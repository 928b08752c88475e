package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubBuild(s *Storage, hook func(sourceDir string)) {
	s.build = func(_ context.Context, sourceDir, typesDir string) (*Model, error) {
		if hook != nil {
			hook(sourceDir)
		}
		return &Model{SourceDir: sourceDir, TypesDir: typesDir}, nil
	}
}

func TestStorage_ReloadsAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := NewStorage(Options{SourceDir: "old", TypesDir: "types"})

	entered := make(chan struct{})
	release := make(chan struct{})
	stubBuild(s, func(sourceDir string) {
		if sourceDir == "old" {
			close(entered)
			<-release
		}
	})

	var wg sync.WaitGroup
	wg.Add(2)
	// медленная пересборка старого корня (watcher) ...
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Reload(ctx))
	}()
	<-entered
	// ... и запрошенная позже смена корня
	go func() {
		defer wg.Done()
		_, err := s.ReloadFrom(ctx, "new", "", nil)
		assert.NoError(t, err)
	}()
	close(release)
	wg.Wait()

	assert.Equal(t, "new", s.Model().SourceDir)
	assert.Equal(t, "types", s.Model().TypesDir)

	// следующий Reload берёт уже новый корень
	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, "new", s.Model().SourceDir)
}

func TestStorage_ReloadFromCheckKeepsModel(t *testing.T) {
	s := NewStorage(Options{SourceDir: "src"})
	stubBuild(s, nil)
	before := s.Model()

	boom := errors.New("boom")
	next, err := s.ReloadFrom(context.Background(), "other", "", func(*Model) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, next)
	assert.Equal(t, "other", next.SourceDir)
	assert.Same(t, before, s.Model())
}

func TestStorage_WatchedSourceRoot(t *testing.T) {
	s := NewStorage(Options{SourceDir: "src", Watching: true})
	stubBuild(s, nil)

	_, err := s.ReloadFrom(context.Background(), "elsewhere", "", nil)
	assert.ErrorIs(t, err, ErrSourceRootLocked)
	assert.Equal(t, "src", s.Model().SourceDir)

	// тот же корень в другой записи допустим
	m, err := s.ReloadFrom(context.Background(), "./src/", "reference/types", nil)
	require.NoError(t, err)
	assert.Equal(t, "reference/types", m.TypesDir)
}

func TestAdminReload_WatchedSourceRoot(t *testing.T) {
	storage := newTestStorage(t)
	storage.watching = true
	r := NewRouter(storage)

	w := do(t, r, http.MethodPost, "/api/admin/reload", map[string]any{"source_root": t.TempDir()})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, shopDir, storage.Model().SourceDir)

	w = do(t, r, http.MethodPost, "/api/admin/reload", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
