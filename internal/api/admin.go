package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"erdgen/internal/jpa"
)

var errBlocked = errors.New("blocking issues")

type reloadReq struct {
	SourceRoot string `json:"source_root"` // директория с исходниками
	TypesRoot  string `json:"types_root"`  // директория каталога типов
	Strict     bool   `json:"strict"`      // блокировать по проблемам линтера
}

// POST /api/admin/reload
func AdminReloadHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadReq
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		sourceRoot := strings.TrimSpace(req.SourceRoot)
		typesRoot := strings.TrimSpace(req.TypesRoot)

		// 1) читаем исходники и каталог типов, 2) линтер на новой модели до подмены,
		// 3) атомарная замена; всё под reloadMu, параллельный reload ждёт
		var blocking []jpa.Issue
		next, err := storage.ReloadFrom(c.Request.Context(), sourceRoot, typesRoot, func(m *Model) error {
			if req.Strict {
				blocking = blockingIssues(m.SchemaLint())
				if len(blocking) > 0 {
					return errBlocked
				}
			}
			return nil
		})
		switch {
		case errors.Is(err, ErrSourceRootLocked):
			c.JSON(http.StatusConflict, gin.H{"error": "source root is watched", "details": err.Error()})
			return
		case errors.Is(err, errBlocked):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "model has blocking issues",
				"issues":     blocking,
				"hint":       "fix sources and retry",
				"sourceRoot": next.SourceDir, "typesRoot": next.TypesDir,
			})
			return
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Source load error", "details": err.Error()})
			return
		}

		issues := next.SchemaLint()
		sourceRoot, typesRoot = next.SourceDir, next.TypesDir
		slog.Info("model reloaded", "source", sourceRoot, "types", typesRoot, "entities", len(next.Entities), "issues", len(issues))

		c.JSON(http.StatusOK, gin.H{
			"ok":         true,
			"sourceRoot": sourceRoot,
			"typesRoot":  typesRoot,
			"units":      len(next.Corpus),
			"entities":   len(next.Entities),
			"typeGroups": len(next.Catalog),
			"issues":     issues,
		})
	}
}
