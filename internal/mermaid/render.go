// Package mermaid renders jpa entities as a Mermaid erDiagram.
package mermaid

import (
	"strings"

	"erdgen/internal/jpa"
)

// Header начинает любую диаграмму.
const Header = "erDiagram\n"

// Label выбирает подпись линии связи.
type Label int

const (
	LabelNone  Label = iota // ""
	LabelField              // имя поля, из которого выведена связь
	LabelKind               // "one to many" и т.п.
)

// ParseLabel понимает none|field|kind; пустая строка = LabelNone.
func ParseLabel(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return LabelNone, true
	case "field":
		return LabelField, true
	case "kind":
		return LabelKind, true
	}
	return LabelNone, false
}

// Options настраивает рендер.
type Options struct {
	Label Label
}

// Render renders entities with default options.
func Render(entities []*jpa.Entity) string {
	return RenderWith(entities, Options{})
}

// RenderWith никогда не падает: связь на неизвестную сущность всё равно
// рисуется линией к этому имени.
func RenderWith(entities []*jpa.Entity, opts Options) string {
	var b strings.Builder
	b.WriteString(Header)

	// 1) блоки сущностей в порядке входа
	for _, e := range entities {
		if e == nil {
			continue
		}
		b.WriteString("  ")
		b.WriteString(e.ID())
		b.WriteString(" {\n")
		for _, f := range e.Fields {
			b.WriteString("    ")
			b.WriteString(sanitizeType(f.Type))
			b.WriteByte(' ')
			b.WriteString(f.Name)
			b.WriteByte('\n')
		}
		b.WriteString("  }\n\n")
	}

	// 2) связи в порядке обнаружения, без повторов
	seen := map[string]struct{}{}
	for _, e := range entities {
		if e == nil {
			continue
		}
		source := e.ID()
		for _, r := range e.Relations {
			target := strings.ToUpper(r.Target)
			key := relationKey(source, target, r.Kind)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			b.WriteString("  ")
			b.WriteString(source)
			b.WriteByte(' ')
			b.WriteString(Connector(r.Kind))
			b.WriteByte(' ')
			b.WriteString(target)
			b.WriteString(` : "`)
			b.WriteString(label(r, opts.Label))
			b.WriteString("\"\n")
		}
	}
	return b.String()
}

// Connector returns the Mermaid cardinality token for kind.
func Connector(kind jpa.RelationKind) string {
	switch kind {
	case jpa.OneToMany:
		return "||--o{"
	case jpa.ManyToOne:
		return "}o--||"
	case jpa.OneToOne:
		return "||--||"
	case jpa.ManyToMany:
		return "}|--|{"
	}
	return "||--||"
}

// RelationKey ключ дедупликации: концы отсортированы, OneToMany и ManyToOne
// делят один typeKey.
func RelationKey(source, target string, kind jpa.RelationKind) string {
	return relationKey(strings.ToUpper(source), strings.ToUpper(target), kind)
}

func relationKey(a, b string, kind jpa.RelationKind) string {
	if b < a {
		a, b = b, a
	}
	return a + "<->" + typeKey(kind) + "<->" + b
}

func typeKey(kind jpa.RelationKind) string {
	switch kind {
	case jpa.OneToMany, jpa.ManyToOne:
		return "OneToMany/ManyToOne"
	case jpa.OneToOne, jpa.ManyToMany:
		return kind.String()
	}
	return kind.String()
}

func label(r jpa.Relation, l Label) string {
	switch l {
	case LabelField:
		return r.Field
	case LabelKind:
		switch r.Kind {
		case jpa.OneToMany:
			return "one to many"
		case jpa.ManyToOne:
			return "many to one"
		case jpa.OneToOne:
			return "one to one"
		case jpa.ManyToMany:
			return "many to many"
		}
	}
	return ""
}

var typeReplacer = strings.NewReplacer("<", "_", ">", "_", ",", "_", ".", "_", "?", "_", " ", "_")

// sanitizeType делает тип допустимым для Mermaid (java.util.Date -> java_util_Date,
// Optional<B> -> Optional_B_). Простые типы и List_T/Set_T/Map_T проходят без изменений.
func sanitizeType(t string) string {
	if t == "" {
		return "unknown"
	}
	return typeReplacer.Replace(t)
}
