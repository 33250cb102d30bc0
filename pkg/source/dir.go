package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ritzau/binview/pkg/api"
	"github.com/ritzau/binview/pkg/results"
)

// LocalCollection is the only collection a Dir serves.
const LocalCollection = "local"

// Dir serves results from <root>/<module>.json files. A file holds what the
// backend returns as results for the module, optionally keyed by OID.
type Dir struct {
	root string
}

// NewDir creates a directory source. The directory must exist.
func NewDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("results dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("results dir %s: not a directory", root)
	}
	return &Dir{root: root}, nil
}

// Root returns the watched directory.
func (d *Dir) Root() string {
	return d.root
}

// Path returns the result file of a module.
func (d *Dir) Path(module string) string {
	return filepath.Join(d.root, module+".json")
}

// ModuleOf returns the module a result file belongs to, or false for files
// that are not result files.
func ModuleOf(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
		return "", false
	}
	module := strings.TrimSuffix(name, ".json")
	return module, module != ""
}

// Modules lists the modules that have a result file.
func (d *Dir) Modules(ctx context.Context) (*api.ModulesResponse, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("list results dir: %w", err)
	}
	modules := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if m, ok := ModuleOf(e.Name()); ok {
			modules = append(modules, m)
		}
	}
	sort.Strings(modules)
	return &api.ModulesResponse{Modules: modules}, nil
}

// Collections lists the single local collection.
func (d *Dir) Collections(ctx context.Context) (*api.CollectionsResponse, error) {
	return &api.CollectionsResponse{Collections: []string{LocalCollection}}, nil
}

// CollectionFiles returns no files; result files are not split per sample.
func (d *Dir) CollectionFiles(ctx context.Context, collection string) (*api.CollectionFilesResponse, error) {
	if collection != LocalCollection {
		return nil, fmt.Errorf("collection %s: %w", collection, ErrNoResult)
	}
	return &api.CollectionFilesResponse{Collection: collection, Files: []api.CollectionFile{}}, nil
}

// ChartCapabilities reports which dedicated views have a result file.
func (d *Dir) ChartCapabilities(ctx context.Context) (*api.ChartCapabilitiesResponse, error) {
	resp := &api.ChartCapabilitiesResponse{}
	for _, m := range results.Modules() {
		_, err := os.Stat(d.Path(m))
		resp.RequiredChartModules = append(resp.RequiredChartModules, api.ModuleCapability{
			Module:    m,
			Available: err == nil,
		})
	}
	return resp, nil
}

// Results reads a module's result file. The OID is applied later, when the
// session unwraps the result.
func (d *Dir) Results(ctx context.Context, collection, oid, module string) ([]byte, error) {
	if _, ok := ModuleOf(module + ".json"); !ok || strings.ContainsAny(module, `/\`) {
		return nil, fmt.Errorf("module %q: %w", module, ErrNoResult)
	}
	data, err := os.ReadFile(d.Path(module))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("module %s: %w", module, ErrNoResult)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s results: %w", module, err)
	}
	return data, nil
}
