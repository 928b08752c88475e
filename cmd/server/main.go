package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"erdgen/internal/api"
	"erdgen/internal/config"
	"erdgen/internal/logging"
	"erdgen/internal/mermaid"
	"erdgen/internal/pg"
	"erdgen/internal/snapshot"
	"erdgen/internal/watch"
)

func main() {
	if err := run(); err != nil {
		slog.Error("erdgen server", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Конфигурация: defaults -> файл -> ENV -> флаги
	path := os.Getenv("ERDGEN_CONFIG")
	if path == "" {
		path = "erdgen.yaml"
	}
	cfg, err := config.LoadWithPath(path, os.Args[1:])
	if err != nil {
		return err
	}
	slog.SetDefault(logging.New(cfg))
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Хранилище снимков: Postgres, если задан URL, иначе в памяти
	var snapshots snapshot.Repo = snapshot.NewMemoryRepo()
	if cfg.DBURL != "" {
		db, err := pg.Open(ctx, cfg.DBURL)
		if err != nil {
			return err
		}
		defer db.Close()
		store := pg.NewSnapshotStore(db)
		if cfg.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
		}
		snapshots = store
		slog.Info("snapshots in postgres", "autoMigrate", cfg.AutoMigrate)
	}

	// 3. Загружаем каталог типов и исходники
	label, _ := mermaid.ParseLabel(cfg.Label) // уже проверено в Validate
	storage := api.NewStorage(api.Options{
		SourceDir:       cfg.SourceDir,
		TypesDir:        cfg.TypesDir,
		Extensions:      cfg.Extensions,
		Label:           label,
		ResolveEmbedded: cfg.ResolveEmbedded,
		Snapshots:       snapshots,
		Blob:            &api.LocalBlobStore{Root: cfg.FilesRoot},
		Watching:        cfg.Watch, // watcher следит за cfg.SourceDir, reload на другой корень -> 409
	})
	if err := storage.Reload(ctx); err != nil {
		return err
	}
	m := storage.Model()
	slog.Info("loaded", "units", len(m.Corpus), "entities", len(m.Entities), "typeGroups", len(m.Catalog))

	// 4. Перечитываем модель при изменении исходников
	if cfg.Watch {
		w, err := watch.New(cfg.SourceDir, func() {
			if err := storage.Reload(ctx); err != nil {
				slog.Error("reload after change", "err", err)
			}
		}, watch.WithExtensions(cfg.Extensions...))
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Error("watcher stopped", "err", err)
			}
		}()
		slog.Info("watching sources", "dir", cfg.SourceDir)
	}

	// 5. Запускаем REST API сервер
	slog.Info("starting erdgen server", "port", cfg.Port)
	return api.RunServer(ctx, ":"+cfg.Port, storage)
}
