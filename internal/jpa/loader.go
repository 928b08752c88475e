package jpa

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultExtensions расширения исходников по умолчанию.
var DefaultExtensions = []string{".java"}

// LoadCorpus читает все файлы с нужными расширениями под root.
// Ключи корпуса: пути относительно root через "/".
func LoadCorpus(ctx context.Context, root string, exts ...string) (Corpus, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if HasExtension(p, exts) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return readAll(ctx, paths, func(p string) string {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		return filepath.ToSlash(rel)
	})
}

// LoadFiles читает явно выбранные файлы; ключ: путь как передан, через "/".
func LoadFiles(ctx context.Context, paths []string) (Corpus, error) {
	return readAll(ctx, paths, filepath.ToSlash)
}

// HasExtension reports whether path ends with one of exts (case-insensitive).
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func readAll(ctx context.Context, paths []string, key func(string) string) (Corpus, error) {
	corpus := make(Corpus, len(paths))
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range paths {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			b, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read %s: %w", p, err)
			}
			mu.Lock()
			corpus[key(p)] = string(b)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return corpus, nil
}

// ExtractAll извлекает сущности из всех единиц корпуса в порядке имён.
// Неподходящие единицы (без @Entity) пропускаются. С resolveEmbedded корпус
// используется для раскрытия @Embedded полей.
func (p *Parser) ExtractAll(corpus Corpus, resolveEmbedded bool) []*Entity {
	var lookup Corpus
	if resolveEmbedded {
		lookup = corpus
	}
	out := make([]*Entity, 0, len(corpus))
	for _, name := range corpus.Names() {
		if e := p.Extract(corpus[name], lookup); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// ExtractAll runs the default parser over the corpus.
func ExtractAll(corpus Corpus, resolveEmbedded bool) []*Entity {
	return defaultParser.ExtractAll(corpus, resolveEmbedded)
}
