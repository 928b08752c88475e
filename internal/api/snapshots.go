package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"erdgen/internal/jpa"
	"erdgen/internal/mermaid"
	"erdgen/internal/snapshot"
)

func snapshotError(c *gin.Context, err error) {
	if errors.Is(err, snapshot.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Snapshot not found"})
		return
	}
	slog.Error("snapshot repo", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "store error", "details": err.Error()})
}

// POST /api/snapshots
// Сохраняет текущую диаграмму (с учётом label и only) под заголовком.
func CreateSnapshotHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := snapshotReq{Label: labelName(storage.Label)}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		label, errs := validateSnapshotReq(&req)
		m := storage.Model()
		errs = append(errs, checkOnly(m.Entities, req.Only)...)
		if len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return
		}

		entities := jpa.Select(m.Entities, req.Only...)
		snap := &snapshot.Snapshot{
			Title:    req.Title,
			Diagram:  mermaid.RenderWith(entities, mermaid.Options{Label: label}),
			Entities: entityNames(entities),
		}
		if err := storage.Snapshots.Save(c.Request.Context(), snap); err != nil {
			snapshotError(c, err)
			return
		}
		c.JSON(http.StatusCreated, snap)
	}
}

// GET /api/snapshots?limit=&offset=&sort=-created_at&q=
func ListSnapshotsHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		lp := snapshot.ParseListParams(c.Request.URL.Query())
		items, total, err := storage.Snapshots.List(c.Request.Context(), lp)
		if err != nil {
			snapshotError(c, err)
			return
		}
		if items == nil {
			items = []*snapshot.Snapshot{}
		}
		c.Header("X-Total-Count", strconv.Itoa(total))
		c.JSON(http.StatusOK, items)
	}
}

// GET /api/snapshots/:id
func GetSnapshotHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := storage.Snapshots.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			snapshotError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// GET /api/snapshots/:id/raw
func RawSnapshotHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := storage.Snapshots.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			snapshotError(c, err)
			return
		}
		c.Data(http.StatusOK, mermaidContentType, []byte(snap.Diagram))
	}
}

// DELETE /api/snapshots/:id
func DeleteSnapshotHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := storage.Snapshots.Delete(c.Request.Context(), c.Param("id")); err != nil {
			snapshotError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func labelName(l mermaid.Label) string {
	switch l {
	case mermaid.LabelField:
		return "field"
	case mermaid.LabelKind:
		return "kind"
	}
	return "none"
}
