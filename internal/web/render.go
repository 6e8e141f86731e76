package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sort"
	"strings"

	"serp-comparator/internal/models"
)

// funcMap provides template helper functions used across templates.
var funcMap = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"seq": func(start, end int) []int {
		var s []int
		for i := start; i <= end; i++ {
			s = append(s, i)
		}
		return s
	},
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"score": func(a models.AnalysisResult) int { return a.ScorePercent() },
	"intentClass": models.IntentClass,
	"join":        strings.Join,
	// counts orders the multiplicity map by number of keywords, highest first.
	"counts": func(m map[int]int) []multiplicity {
		out := make([]multiplicity, 0, len(m))
		for k, v := range m {
			out = append(out, multiplicity{Keywords: k, URLs: v})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Keywords > out[j].Keywords })
		return out
	},
}

type multiplicity struct {
	Keywords int
	URLs     int
}

// Renderer executes the HTML templates.
type Renderer struct {
	templates *template.Template
	basePath  string
}

// NewRenderer parses every *.tmpl in fsys. basePath is exposed to templates as
// {{base}} and always ends with "/".
func NewRenderer(fsys fs.FS, basePath string) (*Renderer, error) {
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	fm := template.FuncMap{"base": func() string { return basePath }}
	for k, v := range funcMap {
		fm[k] = v
	}
	t, err := template.New("").Funcs(fm).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: t, basePath: basePath}, nil
}

// BasePath returns the normalised base path.
func (r *Renderer) BasePath() string { return r.basePath }

// Execute renders a named template with the given status.
func (r *Renderer) Execute(w http.ResponseWriter, status int, name string, data interface{}) error {
	var buf strings.Builder
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(buf.String()))
	return err
}
