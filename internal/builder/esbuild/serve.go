package esbuild

import (
	"bytes"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-chi/chi/v5"
)

// memoryAssets holds the latest successful in-memory output of a watch
// compilation.
type memoryAssets struct {
	outDir  string
	mu      sync.RWMutex
	files   map[string][]byte
	updated time.Time
}

func newMemoryAssets(outDir string) *memoryAssets {
	return &memoryAssets{outDir: outDir, files: make(map[string][]byte)}
}

func (m *memoryAssets) replace(outputs []api.OutputFile) {
	files := make(map[string][]byte, len(outputs))
	for _, f := range outputs {
		rel, err := filepath.Rel(m.outDir, f.Path)
		if err != nil {
			continue
		}
		files[filepath.ToSlash(rel)] = f.Contents
	}
	m.mu.Lock()
	m.files = files
	m.updated = time.Now()
	m.mu.Unlock()
}

func (m *memoryAssets) get(name string) ([]byte, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	return data, m.updated, ok
}

func (m *memoryAssets) mount(r chi.Router, prefix string) {
	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		name := path.Clean("/" + chi.URLParam(req, "*"))[1:]
		data, modified, ok := m.get(name)
		if !ok {
			http.NotFound(w, req)
			return
		}
		if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeContent(w, req, name, modified, bytes.NewReader(data))
	})
}
