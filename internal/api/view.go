package api

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"erdgen/internal/mermaid"
)

// viewTmpl страница с диаграммой; mermaid.js рисует блок .mermaid на клиенте.
var viewTmpl = template.Must(template.New("view").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>body{font-family:sans-serif;margin:1.5rem} pre.mermaid{background:#fff}</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{len .Entities}} entities{{if .ID}} &middot; snapshot {{.ID}}{{end}}</p>
<pre class="mermaid">
{{.Diagram}}</pre>
<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: true });
</script>
</body>
</html>
`))

type viewData struct {
	ID       string
	Title    string
	Diagram  string
	Entities []string
}

func renderView(c *gin.Context, data viewData) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := viewTmpl.Execute(c.Writer, data); err != nil {
		_ = c.Error(err)
	}
}

// GET /view?label=&only=
func ViewHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		label, ok := labelParam(c, storage.Label)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid label"})
			return
		}
		m := storage.Model()
		entities := m.FilterEntities(c.Query("only"))
		renderView(c, viewData{
			Title:    "erdgen: " + m.SourceDir,
			Diagram:  mermaid.RenderWith(entities, mermaid.Options{Label: label}),
			Entities: entityNames(entities),
		})
	}
}

// GET /view/:id
func SnapshotViewHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := storage.Snapshots.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			snapshotError(c, err)
			return
		}
		renderView(c, viewData{ID: snap.ID, Title: snap.Title, Diagram: snap.Diagram, Entities: snap.Entities})
	}
}
