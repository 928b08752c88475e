// Package watch следит за каталогом исходников и сообщает об изменениях.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"erdgen/internal/jpa"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher рекурсивно следит за root. onChange вызывается один раз на серию
// событий, после паузы Debounce.
type Watcher struct {
	root     string
	exts     []string
	debounce time.Duration
	onChange func()

	watcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.exts = exts
		}
	}
}

// New подписывается на root и все вложенные каталоги (кроме скрытых).
func New(root string, onChange func(), opts ...Option) (*Watcher, error) {
	w := &Watcher{
		root:     root,
		exts:     jpa.DefaultExtensions,
		debounce: DefaultDebounce,
		onChange: onChange,
	}
	for _, o := range opts {
		o(w)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w.watcher = fw
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Run обрабатывает события до отмены ctx, потом закрывает watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "root", w.root, "err", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// новый каталог: подписываемся и на него, файлы внутри могли появиться раньше подписки
	if ev.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				return
			}
			if err := w.addTree(ev.Name); err != nil {
				slog.Warn("watch new dir", "dir", ev.Name, "err", err)
			}
			w.trigger()
			return
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if !jpa.HasExtension(ev.Name, w.exts) {
		return
	}
	slog.Debug("source changed", "file", ev.Name, "op", ev.Op.String())
	w.trigger()
}

// trigger откладывает onChange; повторный вызов сдвигает срок.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.watcher.Close()
}
