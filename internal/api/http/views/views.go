// Package views holds the server-side pages and the fiber template engine that renders them.
package views

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
)

// Layout wraps every page; pages are placed where the layout calls {{embed}}.
const Layout = "layout"

//go:embed templates
var templatesFS embed.FS

var funcs = map[string]interface{}{
	"seq": func(n int) []int {
		out := make([]int, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, i)
		}
		return out
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
}

// New returns an html engine over the embedded templates. Pages are named by
// their path below templates/ without the extension, e.g. "employee/list".
func New() *html.Engine {
	root, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(root), ".html")
	engine.AddFuncMap(funcs)
	return engine
}
