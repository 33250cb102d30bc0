// Package source is where view sessions get module results from: the
// analysis backend, or a directory of result files for offline use.
package source

import (
	"context"
	"errors"

	"github.com/ritzau/binview/pkg/api"
)

// ErrNoResult is returned when a source holds nothing for a request.
var ErrNoResult = errors.New("no result")

// Source serves the listings the dashboard pickers need and raw module
// results.
type Source interface {
	Modules(ctx context.Context) (*api.ModulesResponse, error)
	Collections(ctx context.Context) (*api.CollectionsResponse, error)
	CollectionFiles(ctx context.Context, collection string) (*api.CollectionFilesResponse, error)
	ChartCapabilities(ctx context.Context) (*api.ChartCapabilitiesResponse, error)

	// Results returns one module's raw results for a file of a collection.
	Results(ctx context.Context, collection, oid, module string) ([]byte, error)
}

// Backend serves everything from the analysis backend.
type Backend struct {
	*api.Client
}

// NewBackend wraps a backend client.
func NewBackend(c *api.Client) *Backend {
	return &Backend{Client: c}
}

// Results retrieves module results for one OID.
func (b *Backend) Results(ctx context.Context, collection, oid, module string) ([]byte, error) {
	resp, err := b.Retrieve(ctx, api.RetrieveRequest{
		Module:     module,
		OID:        oid,
		Collection: collection,
	})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}
