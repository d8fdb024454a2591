package registry

import (
	"errors"
	"fmt"

	"github.com/procaddr/procaddr-go/pkg/entrypoint"
	"github.com/procaddr/procaddr-go/pkg/version"
)

var (
	// ErrWrongAPI is returned for a feature that targets another API.
	ErrWrongAPI = errors.New("registry: feature targets another API")

	// ErrBadFeatureVersion is returned for an unparsable feature number.
	ErrBadFeatureVersion = errors.New("registry: invalid feature version")
)

// Result is the outcome of ingesting registry documents.
type Result struct {
	Catalog *entrypoint.Catalog

	// Sources lists the ingested documents in order.
	Sources []string

	// Skipped lists features above the version cap and extensions left out
	// of the build, in document order.
	Skipped []string

	// Legacy is the number of appended legacy entry points.
	Legacy int
}

// BuildCatalog ingests docs in order into one catalog.
//
// Commands are declared first. A feature enables its commands with its core
// version unless the version is above cfg.MaxAPIVersion. An extension enables
// its commands only if it is listed in cfg.Extensions and supported for
// cfg.API. Commands of any extension with a protect attribute carry that
// guard, whether or not the extension is built. Legacy commands from cfg are
// appended last.
func BuildCatalog(cfg Config, docs ...*Document) (*Result, error) {
	maxVersion, err := version.Parse(cfg.MaxAPIVersion)
	if err != nil {
		return nil, fmt.Errorf("maxApiVersion: %w", err)
	}

	res := &Result{Catalog: entrypoint.NewCatalog()}
	for i, doc := range docs {
		src := doc.Source
		if src == "" {
			src = fmt.Sprintf("document %d", i)
		}
		res.Sources = append(res.Sources, src)
		if err := res.ingest(cfg, maxVersion, doc); err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
	}

	for _, l := range cfg.Legacy {
		if err := res.Catalog.AppendLegacy(l.Descriptor()); err != nil {
			return nil, fmt.Errorf("legacy: %w", err)
		}
		res.Legacy++
	}
	return res, nil
}

func (res *Result) ingest(cfg Config, maxVersion version.APIVersion, doc *Document) error {
	guards := make(map[string]string)
	for _, ext := range doc.Extensions {
		if ext.Protect == "" {
			continue
		}
		for _, name := range ext.Commands {
			guards[name] = ext.Protect
		}
	}

	for _, cmd := range doc.Commands {
		d := cmd.Descriptor()
		d.Guard = guards[cmd.Name]
		if err := res.Catalog.Declare(d); err != nil {
			return err
		}
	}

	for _, f := range doc.Features {
		if f.API != cfg.API {
			return fmt.Errorf("%w: %s is for %q", ErrWrongAPI, f.Name, f.API)
		}
		v, err := version.Parse(f.Number)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBadFeatureVersion, f.Name, err)
		}
		if v > maxVersion {
			res.Skipped = append(res.Skipped, f.Name)
			continue
		}
		cond := entrypoint.RequireVersion(uint32(v))
		for _, name := range f.Commands {
			if err := res.Catalog.Require(name, cond); err != nil {
				return fmt.Errorf("feature %s: %w", f.Name, err)
			}
		}
	}

	for _, ext := range doc.Extensions {
		if !cfg.supports(ext.Name) || ext.Supported != cfg.API {
			res.Skipped = append(res.Skipped, ext.Name)
			continue
		}
		scope, err := entrypoint.ParseScope(ext.Type)
		if err != nil {
			return fmt.Errorf("extension %s: %w", ext.Name, err)
		}
		cond := entrypoint.RequireExtension(ext.Name, scope)
		for _, name := range ext.Commands {
			if err := res.Catalog.Require(name, cond); err != nil {
				return fmt.Errorf("extension %s: %w", ext.Name, err)
			}
		}
	}
	return nil
}
