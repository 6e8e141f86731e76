// Package web is the HTTP surface: routes, middleware and HTML rendering.
package web

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"serp-comparator/internal/comparison"
	"serp-comparator/internal/presets"
	"serp-comparator/pkg/logging"
	"serp-comparator/pkg/metrics"
	"serp-comparator/pkg/monitoring"
)

// Deps collects what the router needs.
type Deps struct {
	Comparer      comparison.Comparer
	Presets       *presets.Presets
	Renderer      *Renderer
	Static        fs.FS
	Health        http.Handler
	Logger        *logging.Logger
	Metrics       *metrics.Metrics
	Recent        *monitoring.Recent
	MaxKeywords   int
	IntentEnabled bool
}

// NewRouter mounts every route under the renderer's base path and wraps the
// result in the middleware chain.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	h := &Handlers{
		comparer:      d.Comparer,
		presets:       d.Presets,
		renderer:      d.Renderer,
		logger:        d.Logger.WithComponent("web"),
		maxKeywords:   d.MaxKeywords,
		intentEnabled: d.IntentEnabled,
	}

	base := d.Renderer.BasePath()
	root := mux.NewRouter()
	r := root
	if base != "/" {
		prefix := strings.TrimSuffix(base, "/")
		root.Handle(prefix, http.RedirectHandler(base, http.StatusMovedPermanently))
		r = root.PathPrefix(prefix).Subrouter()
	}

	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.HandleFunc("/api/compare-serps", h.CompareAPI).Methods(http.MethodPost)
	r.HandleFunc("/compare", h.CompareHTML).Methods(http.MethodPost)
	if d.Health != nil {
		r.Handle("/healthz", d.Health).Methods(http.MethodGet)
	}
	if d.Static != nil {
		staticPath := base + "static/"
		r.PathPrefix("/static/").Handler(http.StripPrefix(staticPath, http.FileServer(http.FS(d.Static))))
	}

	var handler http.Handler = root
	handler = monitoring.Middleware(d.Metrics, d.Recent)(handler)
	handler = CORS(handler)
	handler = AccessLog(d.Logger)(handler)
	handler = RequestID(handler)
	handler = Recover(d.Logger)(handler)
	return handler
}
