package jpa

import (
	"fmt"
	"sort"
)

// Коды проблем модели.
const (
	IssueEntityDuplicate       = "entity_duplicate"
	IssueRelationTargetUnknown = "relation_target_unknown"
	IssueRelationKindMismatch  = "relation_kind_mismatch"
	IssueEntityEmpty           = "entity_empty"
)

// Issue одна проблема модели. Рендер не блокирует, только сообщает.
type Issue struct {
	Entity  string `json:"entity"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Lint проверяет набор сущностей целиком.
func Lint(entities []*Entity) []Issue {
	var issues []Issue

	// 1) уникальность ID
	byID := map[string]*Entity{}
	for _, e := range entities {
		if e == nil {
			continue
		}
		if prev, ok := byID[e.ID()]; ok {
			issues = append(issues, Issue{
				Entity:  e.Name,
				Code:    IssueEntityDuplicate,
				Message: fmt.Sprintf("entity %s declared more than once (also %s)", e.ID(), prev.Name),
			})
			continue
		}
		byID[e.ID()] = e
	}

	for _, e := range entities {
		if e == nil {
			continue
		}
		// 2) пустые сущности
		if len(e.Fields) == 0 {
			issues = append(issues, Issue{
				Entity:  e.Name,
				Code:    IssueEntityEmpty,
				Message: "entity has no fields",
			})
		}

		for _, r := range e.Relations {
			// 3) цель связи существует
			other, ok := byID[r.Target]
			if !ok {
				issues = append(issues, Issue{
					Entity:  e.Name,
					Field:   r.Field,
					Code:    IssueRelationTargetUnknown,
					Message: fmt.Sprintf("%s targets unknown entity %s", r.Kind, r.Target),
				})
				continue
			}
			// 4) обратная сторона объявлена совместимым видом
			for _, back := range other.Relations {
				if back.Target != e.ID() || back.Kind == r.Kind.Reciprocal() {
					continue
				}
				if other == e {
					continue
				}
				issues = append(issues, Issue{
					Entity: e.Name,
					Field:  r.Field,
					Code:   IssueRelationKindMismatch,
					Message: fmt.Sprintf("%s -> %s is %s, but %s -> %s is %s",
						e.ID(), r.Target, r.Kind, other.ID(), e.ID(), back.Kind),
				})
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Code < b.Code
	})
	return issues
}
