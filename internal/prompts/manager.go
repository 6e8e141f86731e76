package prompts

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"text/template"

	errs "serp-comparator/pkg/errors"
)

// Template names used by the intent classifier.
const (
	IntentSystem = "intent_system"
	IntentUser   = "intent_user"
)

// Manager compiles prompt templates once and renders them by name.
type Manager struct {
	mu   sync.RWMutex
	tpls map[string]*template.Template
}

// NewManager parses the embedded templates.
func NewManager() (*Manager, error) {
	return NewManagerWithOverrides("")
}

// NewManagerWithOverrides parses the embedded templates, then any *.txt.tmpl in
// dir, which replace embedded ones of the same name. An empty or missing dir is
// ignored.
func NewManagerWithOverrides(dir string) (*Manager, error) {
	m := &Manager{tpls: make(map[string]*template.Template)}
	if err := m.load(FS()); err != nil {
		return nil, err
	}
	if dir == "" {
		return m, nil
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return m, nil
	}
	if err := m.load(os.DirFS(dir)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load(fsys fs.FS) error {
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".txt.tmpl") {
			return nil
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read template %s: %w", p, err)
		}
		name := strings.TrimSuffix(path.Base(p), ".txt.tmpl")
		tpl, err := template.New(name).Option("missingkey=error").Parse(string(b))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", p, err)
		}
		m.mu.Lock()
		m.tpls[name] = tpl
		m.mu.Unlock()
		return nil
	})
	if err != nil {
		return errs.NewValidation("prompts.load", "failed to load prompts", err)
	}
	return nil
}

// Has reports whether a template with that name was loaded.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tpls[name]
	return ok
}

// Render executes a named template with data.
func (m *Manager) Render(name string, data any) (string, error) {
	m.mu.RLock()
	tpl, ok := m.tpls[name]
	m.mu.RUnlock()
	if !ok {
		return "", errs.NewValidation("prompts.Render", fmt.Sprintf("prompt template not found: %s", name), nil)
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("prompts.Render: execute template %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// IntentEntry is one result line of the intent prompt.
type IntentEntry struct {
	Position int // 1-based
	Title    string
	URL      string
}

// IntentData feeds the intent_system and intent_user templates.
type IntentData struct {
	Keyword    string
	Entries    []IntentEntry
	Categories []string
}
