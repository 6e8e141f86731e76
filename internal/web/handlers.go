package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"serp-comparator/internal/comparison"
	"serp-comparator/internal/models"
	"serp-comparator/internal/presets"
	"serp-comparator/internal/validation"
	errs "serp-comparator/pkg/errors"
	"serp-comparator/pkg/logging"
)

const maxFormBytes = 1 << 20

// Handlers serves the form, the JSON API and the HTML results page.
type Handlers struct {
	comparer      comparison.Comparer
	presets       *presets.Presets
	renderer      *Renderer
	logger        *logging.ComponentLogger
	maxKeywords   int
	intentEnabled bool
}

// IndexData is passed to index.tmpl.
type IndexData struct {
	Countries     []string
	Country       string
	SearchEngine  string
	Language      string
	NumResults    int
	Device        string
	MaxKeywords   int
	IntentEnabled bool
}

// ResultsData is passed to results.tmpl.
type ResultsData struct {
	Request  models.CompareRequest
	Response *models.CompareResponse
}

// ErrorData is passed to error.tmpl.
type ErrorData struct {
	Status  int
	Message string
}

// Index renders the comparison form.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	data := IndexData{
		Country:       models.DefaultCountry,
		SearchEngine:  models.DefaultSearchEngine,
		Language:      models.DefaultLanguage,
		NumResults:    models.DefaultNumResults,
		Device:        models.DefaultDevice,
		MaxKeywords:   h.maxKeywords,
		IntentEnabled: h.intentEnabled,
	}
	if h.presets != nil {
		data.Countries = h.presets.CountryCodes()
	}
	if err := h.renderer.Execute(w, http.StatusOK, "index.tmpl", data); err != nil {
		h.logger.Ctx(r.Context()).Error("render index", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// CompareAPI answers a form post with the JSON comparison.
func (h *Handlers) CompareAPI(w http.ResponseWriter, r *http.Request) {
	resp, req, err := h.compare(w, r)
	if err != nil {
		status, msg := errorStatus(err)
		writeJSON(w, status, map[string]string{"detail": msg})
		return
	}
	h.logger.Ctx(r.Context()).Debug("api compare served", logging.Strings("keywords", req.Keywords))
	writeJSON(w, http.StatusOK, resp)
}

// CompareHTML answers a form post with the rendered results page.
func (h *Handlers) CompareHTML(w http.ResponseWriter, r *http.Request) {
	resp, req, err := h.compare(w, r)
	if err != nil {
		status, msg := errorStatus(err)
		h.renderError(w, r, status, msg)
		return
	}
	if err := h.renderer.Execute(w, http.StatusOK, "results.tmpl", ResultsData{Request: req, Response: resp}); err != nil {
		h.logger.Ctx(r.Context()).Error("render results", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (h *Handlers) compare(w http.ResponseWriter, r *http.Request) (*models.CompareResponse, models.CompareRequest, error) {
	log := h.logger.Ctx(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, models.CompareRequest{}, errs.NewValidation("web.compare", "invalid form body", err)
	}

	req, err := validation.ParseCompareForm(r.Form, h.maxKeywords, h.presets)
	if err != nil {
		log.Warn("invalid compare request", logging.String("error", err.Error()))
		return nil, req, err
	}

	resp, err := h.comparer.Compare(r.Context(), req)
	if err != nil {
		log.Error("compare failed", err, logging.Strings("keywords", req.Keywords))
		return nil, req, err
	}
	return resp, req, nil
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if err := h.renderer.Execute(w, status, "error.tmpl", ErrorData{Status: status, Message: msg}); err != nil {
		h.logger.Ctx(r.Context()).Error("render error page", err)
		http.Error(w, msg, status)
	}
}

// errorStatus maps an error onto the HTTP status and the message shown to the
// caller. Messages are bounded to errs.MaxMessageLen.
func errorStatus(err error) (int, string) {
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errs.Truncate(ve.Message(), errs.MaxMessageLen)
	}
	var ae *errs.AggregateError
	if errors.As(err, &ae) {
		return http.StatusInternalServerError, errs.Truncate(ae.Message(), errs.MaxMessageLen)
	}
	return http.StatusInternalServerError, errs.Surface(err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
