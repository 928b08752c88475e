package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"erdgen/internal/jpa"
	"erdgen/internal/mermaid"
	"erdgen/internal/pg"
	"erdgen/internal/reference"
	"erdgen/internal/snapshot"
)

// Model загруженное состояние: корпус, сущности и каталог типов.
// После сборки не меняется, замена только целиком.
type Model struct {
	SourceDir string
	TypesDir  string
	Parser    *jpa.Parser
	Corpus    jpa.Corpus
	Entities  []*jpa.Entity
	Catalog   map[string]reference.TypeCatalog
}

type Options struct {
	SourceDir       string
	TypesDir        string
	Extensions      []string
	Label           mermaid.Label
	ResolveEmbedded bool
	Snapshots       snapshot.Repo // nil = в памяти
	Blob            BlobStore     // nil = экспорт выключен
	Watching        bool          // watcher привязан к SourceDir, сменить корень нельзя
}

// ErrSourceRootLocked: при включённом watcher корень исходников менять нельзя.
var ErrSourceRootLocked = errors.New("source root is watched and cannot change")

type Storage struct {
	mu    sync.RWMutex
	model *Model

	// reloadMu сериализует чтение корней, сборку и подмену модели
	reloadMu sync.Mutex
	build    func(ctx context.Context, sourceDir, typesDir string) (*Model, error)
	watching bool

	Extensions      []string
	Label           mermaid.Label
	ResolveEmbedded bool
	Snapshots       snapshot.Repo
	Blob            BlobStore
}

// NewStorage создаёт пустое хранилище; модель появляется после Reload или SetModel.
func NewStorage(opts Options) *Storage {
	s := &Storage{
		model:           &Model{SourceDir: opts.SourceDir, TypesDir: opts.TypesDir, Parser: jpa.NewParser()},
		Extensions:      opts.Extensions,
		Label:           opts.Label,
		ResolveEmbedded: opts.ResolveEmbedded,
		Snapshots:       opts.Snapshots,
		Blob:            opts.Blob,
		watching:        opts.Watching,
	}
	s.build = s.Build
	if len(s.Extensions) == 0 {
		s.Extensions = jpa.DefaultExtensions
	}
	if s.Snapshots == nil {
		s.Snapshots = snapshot.NewMemoryRepo()
	}
	return s
}

// Model возвращает текущую модель; вызывающий не должен её менять.
func (s *Storage) Model() *Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel атомарно подменяет модель.
func (s *Storage) SetModel(m *Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

// Build читает каталог типов и исходники и собирает новую модель, не трогая текущую.
func (s *Storage) Build(ctx context.Context, sourceDir, typesDir string) (*Model, error) {
	catalog, err := reference.LoadTypeCatalog(typesDir)
	if err != nil {
		return nil, fmt.Errorf("type catalog: %w", err)
	}
	corpus, err := jpa.LoadCorpus(ctx, sourceDir, s.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	return s.BuildFromCorpus(sourceDir, typesDir, corpus, catalog), nil
}

// BuildFromCorpus собирает модель из уже прочитанных исходников.
func (s *Storage) BuildFromCorpus(sourceDir, typesDir string, corpus jpa.Corpus, catalog map[string]reference.TypeCatalog) *Model {
	parser := jpa.NewParser(jpa.WithValueTypes(reference.ValueTypes(catalog)...))
	return &Model{
		SourceDir: sourceDir,
		TypesDir:  typesDir,
		Parser:    parser,
		Corpus:    corpus,
		Entities:  parser.ExtractAll(corpus, s.ResolveEmbedded),
		Catalog:   catalog,
	}
}

// ReloadFrom собирает модель из sourceRoot/typesRoot (пустые = текущие) и подменяет её.
// check вызывается до подмены; его ошибка оставляет текущую модель, новая возвращается вместе с ошибкой.
// Перезагрузки выполняются строго по очереди, побеждает последняя.
func (s *Storage) ReloadFrom(ctx context.Context, sourceRoot, typesRoot string, check func(*Model) error) (*Model, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	cur := s.Model()
	if sourceRoot == "" {
		sourceRoot = cur.SourceDir
	}
	if typesRoot == "" {
		typesRoot = cur.TypesDir
	}
	if s.watching && filepath.Clean(sourceRoot) != filepath.Clean(cur.SourceDir) {
		return nil, fmt.Errorf("%w: %s", ErrSourceRootLocked, cur.SourceDir)
	}

	m, err := s.build(ctx, sourceRoot, typesRoot)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(m); err != nil {
			return m, err
		}
	}
	s.SetModel(m)
	return m, nil
}

// Reload пересобирает модель из текущих каталогов (используется watcher'ом).
func (s *Storage) Reload(ctx context.Context) error {
	m, err := s.ReloadFrom(ctx, "", "", nil)
	if err != nil {
		return err
	}
	slog.Info("model reloaded", "source", m.SourceDir, "units", len(m.Corpus), "entities", len(m.Entities))
	return nil
}

// DDLOptions типы из каталога сверх встроенных.
func (m *Model) DDLOptions() pg.DDLOptions {
	return pg.DDLOptions{Types: reference.SQLTypes(m.Catalog)}
}
