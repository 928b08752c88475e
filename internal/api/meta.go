package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"erdgen/internal/jpa"
	"erdgen/internal/mermaid"
)

// ===== META HANDLERS =====

type metaEntityListItem struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	Table     string `json:"table,omitempty"`
	Fields    int    `json:"fields"`
	Relations int    `json:"relations"`
}

// GET /api/entities
func EntityListHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := storage.Model()
		out := make([]metaEntityListItem, 0, len(m.Entities))
		for _, e := range m.Entities {
			out = append(out, metaEntityListItem{
				Name:      e.Name,
				ID:        e.ID(),
				Table:     e.Table,
				Fields:    len(e.Fields),
				Relations: len(e.Relations),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaRelation struct {
	jpa.Relation
	Connector string `json:"connector"`
	Resolved  bool   `json:"resolved"` // цель есть среди загруженных сущностей
}

type metaEntity struct {
	Name      string         `json:"name"`
	ID        string         `json:"id"`
	Table     string         `json:"table,omitempty"`
	Fields    []jpa.Field    `json:"fields"`
	Relations []metaRelation `json:"relations"`
}

// GET /api/entities/:name
func EntityHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := storage.Model()
		e, ok := m.FindEntity(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
			return
		}

		rels := make([]metaRelation, 0, len(e.Relations))
		for _, r := range e.Relations {
			_, resolved := m.FindEntity(r.Target)
			rels = append(rels, metaRelation{Relation: r, Connector: mermaid.Connector(r.Kind), Resolved: resolved})
		}
		fields := e.Fields
		if fields == nil {
			fields = []jpa.Field{}
		}
		c.JSON(http.StatusOK, metaEntity{
			Name:      e.Name,
			ID:        e.ID(),
			Table:     e.Table,
			Fields:    fields,
			Relations: rels,
		})
	}
}
