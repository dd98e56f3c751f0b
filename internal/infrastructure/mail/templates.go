package mail

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/webster-hq/webster/internal/core/domain"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// ErrUnknownTemplate is returned for a notification kind without a template.
var ErrUnknownTemplate = errors.New("unknown email template")

// Renderer renders notification kinds to a subject and a plain text body.
// Each template defines a "subject" and a "body" block.
type Renderer struct {
	templates map[domain.NotificationKind]*template.Template
}

// NewRenderer loads the embedded templates. When dir is set, any
// <kind>.tmpl file found there replaces the embedded one.
func NewRenderer(dir string) (*Renderer, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	r := &Renderer{templates: make(map[domain.NotificationKind]*template.Template)}

	entries, err := fs.ReadDir(sub, ".")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		kind := domain.NotificationKind(strings.TrimSuffix(e.Name(), ".tmpl"))
		src := fs.FS(sub)
		if dir != "" {
			if _, err := os.Stat(filepath.Join(dir, e.Name())); err == nil {
				src = os.DirFS(dir)
			}
		}
		t, err := template.New(e.Name()).Option("missingkey=zero").ParseFS(src, e.Name())
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", e.Name(), err)
		}
		for _, block := range []string{"subject", "body"} {
			if t.Lookup(block) == nil {
				return nil, fmt.Errorf("template %s: missing %q block", e.Name(), block)
			}
		}
		r.templates[kind] = t
	}
	return r, nil
}

// Render executes the template for kind with data.
func (r *Renderer) Render(kind domain.NotificationKind, data map[string]string) (subject, body string, err error) {
	t, ok := r.templates[kind]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, kind)
	}
	if data == nil {
		data = map[string]string{}
	}

	var sb, bb strings.Builder
	if err := t.ExecuteTemplate(&sb, "subject", data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", kind, err)
	}
	if err := t.ExecuteTemplate(&bb, "body", data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", kind, err)
	}
	return strings.TrimSpace(sb.String()), strings.TrimLeft(bb.String(), "\n"), nil
}
