// api/router.go
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter собирает все маршруты; gin.Mode() решает, нужен ли логгер запросов.
func NewRouter(storage *Storage) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		r.Use(gin.Logger())
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/entities", EntityListHandler(storage))
		apiGroup.GET("/entities/:name", EntityHandler(storage))
		apiGroup.GET("/diagram", DiagramHandler(storage))
		apiGroup.POST("/diagram", RenderSourcesHandler(storage))
		apiGroup.GET("/ddl", DDLHandler(storage))
		apiGroup.GET("/lint", LintHandler(storage))

		// снимки: служебные маршруты рядом с CRUD
		apiGroup.POST("/snapshots", CreateSnapshotHandler(storage))
		apiGroup.GET("/snapshots", ListSnapshotsHandler(storage))
		apiGroup.GET("/snapshots/:id", GetSnapshotHandler(storage))
		apiGroup.GET("/snapshots/:id/raw", RawSnapshotHandler(storage))
		apiGroup.POST("/snapshots/:id/_export", ExportSnapshotHandler(storage))
		apiGroup.GET("/snapshots/:id/_export", DownloadExportHandler(storage))
		apiGroup.DELETE("/snapshots/:id", DeleteSnapshotHandler(storage))

		apiGroup.POST("/admin/reload", AdminReloadHandler(storage))
	}

	r.GET("/view", ViewHandler(storage))
	r.GET("/view/:id", SnapshotViewHandler(storage))
	return r
}

// RunServer слушает addr до отмены ctx, потом даёт запросам 5 секунд на завершение.
func RunServer(ctx context.Context, addr string, storage *Storage) error {
	srv := &http.Server{Addr: addr, Handler: NewRouter(storage), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
