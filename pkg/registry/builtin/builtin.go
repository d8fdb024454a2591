// Package builtin embeds the default registry documents so tools and tests
// can build a realistic index without external files.
package builtin

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/procaddr/procaddr-go/pkg/entrypoint"
	"github.com/procaddr/procaddr-go/pkg/registry"
)

//go:embed registries/*.yaml
var registryFS embed.FS

// Source is the Document.Source prefix of embedded documents.
const Source = "builtin"

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*registry.Document)
)

// Load returns the embedded document with the given name (e.g. "vk-core").
// Documents are parsed once and shared; callers must not modify them.
func Load(name string) (*registry.Document, error) {
	cacheMu.RLock()
	if d, ok := cache[name]; ok {
		cacheMu.RUnlock()
		return d, nil
	}
	cacheMu.RUnlock()

	data, err := registryFS.ReadFile("registries/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("builtin registry %q not found: %w", name, err)
	}

	doc, err := registry.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("builtin registry %q: %w", name, err)
	}
	doc.Source = Source + ":" + name

	cacheMu.Lock()
	cache[name] = doc
	cacheMu.Unlock()

	return doc, nil
}

// Names returns the names of all embedded documents, sorted.
func Names() ([]string, error) {
	entries, err := registryFS.ReadDir("registries")
	if err != nil {
		return nil, fmt.Errorf("reading registries directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if n := e.Name(); strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Documents loads every embedded document in name order.
func Documents() ([]*registry.Document, error) {
	names, err := Names()
	if err != nil {
		return nil, err
	}
	docs := make([]*registry.Document, 0, len(names))
	for _, n := range names {
		d, err := Load(n)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Catalog ingests every embedded document with cfg.
func Catalog(cfg registry.Config) (*registry.Result, error) {
	docs, err := Documents()
	if err != nil {
		return nil, err
	}
	return registry.BuildCatalog(cfg, docs...)
}

// Index compiles the embedded registry with the default configuration.
func Index() (*entrypoint.Index, error) {
	cfg := registry.DefaultConfig()
	res, err := Catalog(cfg)
	if err != nil {
		return nil, err
	}
	return entrypoint.Compile(res.Catalog, cfg.Options()...)
}
