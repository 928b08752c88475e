package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"erdgen/internal/jpa"
	"erdgen/internal/mermaid"
	"erdgen/internal/pg"
)

const mermaidContentType = "text/plain; charset=utf-8"

// labelParam: ?label= поверх значения из конфигурации.
func labelParam(c *gin.Context, def mermaid.Label) (mermaid.Label, bool) {
	raw, ok := c.GetQuery("label")
	if !ok {
		return def, true
	}
	return mermaid.ParseLabel(raw)
}

// GET /api/diagram?label=&only=A,B
func DiagramHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		label, ok := labelParam(c, storage.Label)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []FieldError{ferr(ErrEnumInvalid, "label", "Invalid value for 'label' (allowed: none|field|kind)")},
			})
			return
		}
		m := storage.Model()
		entities := m.FilterEntities(c.Query("only"))
		c.Data(http.StatusOK, mermaidContentType, []byte(mermaid.RenderWith(entities, mermaid.Options{Label: label})))
	}
}

// POST /api/diagram
// Рендер присланных исходников без сохранения; загруженная модель не меняется.
func RenderSourcesHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req diagramReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		label, errs := validateDiagramReq(&req)
		if len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return
		}

		resolve := storage.ResolveEmbedded
		if req.ResolveEmbedded != nil {
			resolve = *req.ResolveEmbedded
		}
		corpus := jpa.Corpus(req.Sources)
		var lookup jpa.Corpus
		if resolve {
			lookup = corpus
		}

		// 1) извлекаем в порядке имён, запоминаем неподходящие единицы
		parser := storage.Model().Parser
		entities := make([]*jpa.Entity, 0, len(corpus))
		skipped := []string{}
		for _, name := range corpus.Names() {
			if e := parser.Extract(corpus[name], lookup); e != nil {
				entities = append(entities, e)
			} else {
				skipped = append(skipped, name)
			}
		}

		// 2) фильтр only
		if len(req.Only) > 0 {
			if errs := checkOnly(entities, req.Only); len(errs) > 0 {
				c.JSON(statusForErrors(errs), gin.H{"errors": errs})
				return
			}
			entities = jpa.Select(entities, req.Only...)
		}

		c.JSON(http.StatusOK, gin.H{
			"diagram":  mermaid.RenderWith(entities, mermaid.Options{Label: label}),
			"entities": entityNames(entities),
			"skipped":  skipped,
		})
	}
}

// GET /api/ddl
func DDLHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := storage.Model()
		ddl, err := pg.GenerateDDL(m.FilterEntities(c.Query("only")), m.DDLOptions())
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "DDL generation failed", "details": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/sql; charset=utf-8", []byte(pg.Script(ddl)))
	}
}

// GET /api/lint
func LintHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues := storage.Model().SchemaLint()
		c.JSON(http.StatusOK, gin.H{"issues": issues, "total": len(issues)})
	}
}
