package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"erdgen/internal/snapshot"
)

const snapshotsDDL = `create table if not exists erd_snapshots (
  id text primary key,
  title text not null,
  diagram text not null,
  entities jsonb not null default '[]',
  created_at timestamp with time zone not null
);
create index if not exists erd_snapshots_created_at_idx on erd_snapshots(created_at);`

var _ snapshot.Repo = (*SnapshotStore)(nil)

// SnapshotStore хранит снимки диаграмм в таблице erd_snapshots.
type SnapshotStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy io.Reader
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &SnapshotStore{db: db, entropy: ulid.Monotonic(src, 0)}
}

// EnsureSchema создаёт таблицу снимков, если её нет.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	return ApplyDDL(ctx, s.db, map[string]string{"000_erd_snapshots": snapshotsDDL})
}

func (s *SnapshotStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SnapshotStore) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	if snap.ID == "" {
		snap.ID = s.newID(snap.CreatedAt)
	}
	ents := snap.Entities
	if ents == nil {
		ents = []string{}
	}
	raw, err := json.Marshal(ents)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into erd_snapshots (id, title, diagram, entities, created_at) values ($1, $2, $3, $4, $5)
		 on conflict (id) do update set title = excluded.title, diagram = excluded.diagram, entities = excluded.entities`,
		snap.ID, snap.Title, snap.Diagram, string(raw), snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, title, diagram, entities, created_at from erd_snapshots where id = $1`, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, snapshot.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return snap, nil
}

// likeEscaper: поиск по подстроке буквальный, как в MemoryRepo.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *SnapshotStore) List(ctx context.Context, p snapshot.ListParams) ([]*snapshot.Snapshot, int, error) {
	like := "%" + likeEscaper.Replace(p.Q) + "%"

	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from erd_snapshots where title ilike $1 escape '\'`, like).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count snapshots: %w", err)
	}

	limit := "all"
	if p.Limit > 0 {
		limit = fmt.Sprint(p.Limit)
	}
	// OrderBy пропускает только разрешённые поля
	q := fmt.Sprintf(`select id, title, diagram, entities, created_at from erd_snapshots
		where title ilike $1 escape '\' order by %s limit %s offset $2`, p.OrderBy(), limit)
	rows, err := s.db.QueryContext(ctx, q, like, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := []*snapshot.Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, snap)
	}
	return out, total, rows.Err()
}

func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from erd_snapshots where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return snapshot.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(r scanner) (*snapshot.Snapshot, error) {
	var (
		snap snapshot.Snapshot
		raw  []byte
	)
	if err := r.Scan(&snap.ID, &snap.Title, &snap.Diagram, &raw, &snap.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &snap.Entities); err != nil {
		return nil, fmt.Errorf("snapshot %s entities: %w", snap.ID, err)
	}
	return &snap, nil
}
