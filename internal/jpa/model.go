package jpa

import (
	"fmt"
	"strings"
)

// Field описывает колонку сущности в порядке первого объявления.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // сырой тип или List_T / Set_T / Map_T
}

// RelationKind is the kind of a relation marker.
type RelationKind int

// Relation kinds.
const (
	OneToMany RelationKind = iota + 1
	ManyToOne
	OneToOne
	ManyToMany
)

// RelationKinds перечисляет все виды связей в порядке объявления.
var RelationKinds = []RelationKind{OneToMany, ManyToOne, OneToOne, ManyToMany}

// String returns the marker name of the kind.
func (k RelationKind) String() string {
	switch k {
	case OneToMany:
		return "OneToMany"
	case ManyToOne:
		return "ManyToOne"
	case OneToOne:
		return "OneToOne"
	case ManyToMany:
		return "ManyToMany"
	}
	return fmt.Sprintf("RelationKind(%d)", int(k))
}

// ParseRelationKind принимает имя маркера с "@" или без.
func ParseRelationKind(s string) (RelationKind, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	for _, k := range RelationKinds {
		if strings.EqualFold(k.String(), s) {
			return k, true
		}
	}
	return 0, false
}

// Reciprocal returns the kind the other side is expected to declare.
func (k RelationKind) Reciprocal() RelationKind {
	switch k {
	case OneToMany:
		return ManyToOne
	case ManyToOne:
		return OneToMany
	}
	return k
}

func (k RelationKind) MarshalText() ([]byte, error) {
	if k < OneToMany || k > ManyToMany {
		return nil, fmt.Errorf("unknown relation kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *RelationKind) UnmarshalText(b []byte) error {
	v, ok := ParseRelationKind(string(b))
	if !ok {
		return fmt.Errorf("unknown relation kind %q", string(b))
	}
	*k = v
	return nil
}

// Relation связь сущности с другой сущностью.
type Relation struct {
	Kind   RelationKind `json:"kind"`
	Target string       `json:"target"`          // всегда в верхнем регистре
	Field  string       `json:"field,omitempty"` // поле/аксессор, из которого выведена связь
}

// Entity описывает класс, помеченный @Entity.
type Entity struct {
	Name      string     `json:"name"`
	Table     string     `json:"table,omitempty"` // из @Table(name = "...")
	Fields    []Field    `json:"fields"`
	Relations []Relation `json:"relations"`
}

// ID возвращает идентификатор узла диаграммы.
func (e *Entity) ID() string { return strings.ToUpper(e.Name) }

// Field returns the field with the given name.
func (e *Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Select оставляет сущности с перечисленными именами (без учёта регистра),
// сохраняя порядок entities. Без имён возвращает entities как есть.
func Select(entities []*Entity, names ...string) []*Entity {
	want := map[string]bool{}
	for _, n := range names {
		if n = strings.ToUpper(strings.TrimSpace(n)); n != "" {
			want[n] = true
		}
	}
	if len(want) == 0 {
		return entities
	}
	out := make([]*Entity, 0, len(want))
	for _, e := range entities {
		if e != nil && want[e.ID()] {
			out = append(out, e)
		}
	}
	return out
}
