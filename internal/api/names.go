// api/names.go
package api

import (
	"strings"

	"erdgen/internal/jpa"
)

// FindEntity ищет сущность по имени или ID без учёта регистра.
// При дубликатах (одно ID у двух классов) возвращает первую по порядку корпуса.
func (m *Model) FindEntity(name string) (*jpa.Entity, bool) {
	id := strings.ToUpper(strings.TrimSpace(name))
	if id == "" {
		return nil, false
	}
	for _, e := range m.Entities {
		if e.ID() == id {
			return e, true
		}
	}
	return nil, false
}

// FilterEntities оставляет сущности из списка only (ID через запятую).
// Пустой список = все. Неизвестные имена молча пропускаются.
func (m *Model) FilterEntities(only string) []*jpa.Entity {
	return jpa.Select(m.Entities, strings.Split(only, ",")...)
}
