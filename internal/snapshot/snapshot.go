// Package snapshot хранит сохранённые диаграммы.
package snapshot

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("snapshot not found")

// Snapshot сохранённый текст диаграммы и список сущностей, из которых он собран.
type Snapshot struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Diagram   string    `json:"diagram"`
	Entities  []string  `json:"entities"`
	CreatedAt time.Time `json:"created_at"`
}

// Repo хранилище снимков. Save заполняет ID и CreatedAt, если они пустые.
type Repo interface {
	Save(ctx context.Context, s *Snapshot) error
	Get(ctx context.Context, id string) (*Snapshot, error)
	List(ctx context.Context, p ListParams) ([]*Snapshot, int, error)
	Delete(ctx context.Context, id string) error
}
