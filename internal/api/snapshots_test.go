package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erdgen/internal/snapshot"
)

func TestSnapshots_CRUD(t *testing.T) {
	storage := newTestStorage(t)
	r := NewRouter(storage)

	w := do(t, r, http.MethodPost, "/api/snapshots", map[string]any{"title": "  cart only ", "only": []string{"Cart"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	snap := decode[snapshot.Snapshot](t, w)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "cart only", snap.Title)
	assert.Equal(t, []string{"Cart"}, snap.Entities)
	assert.Contains(t, snap.Diagram, "  CART {\n")

	w = do(t, r, http.MethodPost, "/api/snapshots", map[string]any{"title": "full", "label": "kind"})
	require.Equal(t, http.StatusCreated, w.Code)
	full := decode[snapshot.Snapshot](t, w)
	assert.Len(t, full.Entities, 8)
	assert.Contains(t, full.Diagram, `: "one to many"`)

	w = do(t, r, http.MethodGet, "/api/snapshots?sort=title", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-Total-Count"))
	list := decode[[]snapshot.Snapshot](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "cart only", list[0].Title)

	w = do(t, r, http.MethodGet, "/api/snapshots?q=FULL", nil)
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))

	w = do(t, r, http.MethodGet, "/api/snapshots/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snap.Diagram, decode[snapshot.Snapshot](t, w).Diagram)

	w = do(t, r, http.MethodGet, "/api/snapshots/"+snap.ID+"/raw", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snap.Diagram, w.Body.String())

	w = do(t, r, http.MethodGet, "/view/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>cart only</title>")

	w = do(t, r, http.MethodDelete, "/api/snapshots/"+snap.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodDelete, "/api/snapshots/"+snap.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodGet, "/api/snapshots/"+snap.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshots_Validation(t *testing.T) {
	r := NewRouter(newTestStorage(t))

	w := do(t, r, http.MethodPost, "/api/snapshots", map[string]any{"title": " ", "label": "x", "only": []string{"Ghost"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[struct {
		Errors []FieldError `json:"errors"`
	}](t, w).Errors
	require.Len(t, errs, 3)
	assert.Equal(t, "title", errs[0].Field)
	assert.Equal(t, "label", errs[1].Field)
	assert.Equal(t, ErrNotFound, errs[2].Code)
}

func TestSnapshots_Export(t *testing.T) {
	storage := newTestStorage(t)
	r := NewRouter(storage)

	snap := &snapshot.Snapshot{Title: "t", Diagram: "erDiagram\n"}
	require.NoError(t, storage.Snapshots.Save(context.Background(), snap))

	w := do(t, r, http.MethodGet, "/api/snapshots/"+snap.ID+"/_export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/snapshots/"+snap.ID+"/_export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[struct {
		Key    string `json:"key"`
		Size   int64  `json:"size"`
		SHA256 string `json:"sha256"`
	}](t, w)
	sum := sha256.Sum256([]byte("erDiagram\n"))
	assert.Equal(t, snap.ID+".mmd", out.Key)
	assert.Equal(t, int64(10), out.Size)
	assert.Equal(t, hex.EncodeToString(sum[:]), out.SHA256)

	root := storage.Blob.(*LocalBlobStore).Root
	b, err := os.ReadFile(filepath.Join(root, out.Key))
	require.NoError(t, err)
	assert.Equal(t, "erDiagram\n", string(b))

	w = do(t, r, http.MethodGet, "/api/snapshots/"+snap.ID+"/_export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "erDiagram\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), snap.ID+".mmd")

	w = do(t, r, http.MethodPost, "/api/snapshots/missing/_export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshots_ExportWithoutBlob(t *testing.T) {
	storage := newTestStorage(t)
	storage.Blob = nil
	snap := &snapshot.Snapshot{Title: "t", Diagram: "erDiagram\n"}
	require.NoError(t, storage.Snapshots.Save(context.Background(), snap))

	w := do(t, NewRouter(storage), http.MethodPost, "/api/snapshots/"+snap.ID+"/_export", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
