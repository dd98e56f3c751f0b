package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func staticRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":       "<h1>home</h1>",
		"login/index.html": "<h1>login</h1>",
		"css/site.css":     "body{}",
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// A file outside root that traversal must not reach.
	if err := os.WriteFile(filepath.Join(filepath.Dir(root), "secret.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestStaticHandler_Serve(t *testing.T) {
	h := NewStaticHandler(staticRoot(t))

	cases := map[string]string{
		"/":             "<h1>home</h1>",
		"/login/":       "<h1>login</h1>",
		"/css/site.css": "body{}",
	}
	for target, want := range cases {
		_, c, rec := newContext(http.MethodGet, target, "")
		if err := h.Serve(c); err != nil {
			t.Fatalf("%s: handler error: %v", target, err)
		}
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("%s: got %d %q", target, rec.Code, rec.Body.String())
		}
	}
}

func TestStaticHandler_NotFound(t *testing.T) {
	h := NewStaticHandler(staticRoot(t))

	for _, target := range []string{"/missing.html", "/css/", "/../secret.txt", "/css/../../secret.txt"} {
		_, c, rec := newContext(http.MethodGet, target, "")
		if err := h.Serve(c); err != nil {
			t.Fatalf("%s: handler error: %v", target, err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, rec.Code)
		}
		if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
			t.Fatalf("%s: expected text/plain, got %q", target, rec.Header().Get("Content-Type"))
		}
		if !strings.HasPrefix(rec.Body.String(), "File not found: ") {
			t.Fatalf("%s: unexpected body %q", target, rec.Body.String())
		}
	}
}
