package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// POST /api/snapshots/:id/_export
// Пишет текст диаграммы в blob store как <id>.mmd.
func ExportSnapshotHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		if storage.Blob == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "blob store not configured"})
			return
		}
		snap, err := storage.Snapshots.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			snapshotError(c, err)
			return
		}

		key, size, sum, err := storage.Blob.Put(snap.ID+".mmd", strings.NewReader(snap.Diagram))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store error", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":     snap.ID,
			"key":    key,
			"size":   size,
			"sha256": sum,
		})
	}
}

// GET /api/snapshots/:id/_export
// Отдаёт ранее экспортированный файл.
func DownloadExportHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		if storage.Blob == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "blob store not configured"})
			return
		}
		key := c.Param("id") + ".mmd"
		rc, err := storage.Blob.Open(key)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Export not found"})
			return
		}
		defer rc.Close()
		c.Header("Content-Disposition", `attachment; filename="`+key+`"`)
		c.DataFromReader(http.StatusOK, -1, mermaidContentType, rc, nil)
	}
}
