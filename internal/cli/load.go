package cli

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"erdgen/internal/config"
	"erdgen/internal/jpa"
	"erdgen/internal/reference"
)

// loaded результат чтения путей командной строки.
type loaded struct {
	corpus   jpa.Corpus
	catalog  map[string]reference.TypeCatalog
	entities []*jpa.Entity
}

// loadPaths читает каталоги и файлы; без путей берётся cfg.SourceDir.
// Ключи каталогов получают префикс пути, чтобы два каталога не конфликтовали.
func loadPaths(ctx context.Context, cfg config.Config, paths []string) (*loaded, error) {
	if len(paths) == 0 {
		paths = []string{cfg.SourceDir}
	}

	corpus := jpa.Corpus{}
	var files []string
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			files = append(files, p)
			continue
		}
		c, err := jpa.LoadCorpus(ctx, p, cfg.Extensions...)
		if err != nil {
			return nil, err
		}
		for k, v := range c {
			corpus[path.Join(filepath.ToSlash(p), k)] = v
		}
	}
	if len(files) > 0 {
		c, err := jpa.LoadFiles(ctx, files)
		if err != nil {
			return nil, err
		}
		for k, v := range c {
			corpus[k] = v
		}
	}
	if len(corpus) == 0 {
		return nil, fmt.Errorf("no sources with extensions %v in %v", cfg.Extensions, paths)
	}

	catalog, err := reference.LoadTypeCatalog(cfg.TypesDir)
	if err != nil {
		return nil, err
	}
	parser := jpa.NewParser(jpa.WithValueTypes(reference.ValueTypes(catalog)...))
	return &loaded{
		corpus:   corpus,
		catalog:  catalog,
		entities: parser.ExtractAll(corpus, cfg.ResolveEmbedded),
	}, nil
}
