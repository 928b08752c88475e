package snapshot

import (
	"context"
	"io"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var _ Repo = (*MemoryRepo)(nil)

// MemoryRepo хранит снимки в памяти процесса.
type MemoryRepo struct {
	mu      sync.RWMutex
	items   map[string]*Snapshot
	entropy io.Reader
	now     func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &MemoryRepo{
		items:   make(map[string]*Snapshot),
		entropy: ulid.Monotonic(src, 0),
		now:     time.Now,
	}
}

// newID выдаёт монотонный ULID; вызывать под r.mu.
func (r *MemoryRepo) newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), r.entropy).String()
}

func (r *MemoryRepo) Save(_ context.Context, s *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now().UTC()
	}
	if s.ID == "" {
		s.ID = r.newID(s.CreatedAt)
	}
	cp := *s
	cp.Entities = slices.Clone(s.Entities)
	r.items[s.ID] = &cp
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	cp.Entities = slices.Clone(s.Entities)
	return &cp, nil
}

func (r *MemoryRepo) List(_ context.Context, p ListParams) ([]*Snapshot, int, error) {
	r.mu.RLock()
	items := make([]*Snapshot, 0, len(r.items))
	q := strings.ToLower(p.Q)
	for _, s := range r.items {
		if q != "" && !strings.Contains(strings.ToLower(s.Title), q) {
			continue
		}
		cp := *s
		cp.Entities = slices.Clone(s.Entities)
		items = append(items, &cp)
	}
	r.mu.RUnlock()

	keys := p.Sort
	if len(keys) == 0 {
		keys = DefaultListParams().Sort
	}
	sortSnapshots(items, keys)
	return page(items, p), len(items), nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}
