package api

import "encoding/json"

// ModulesResponse lists the analysis modules the backend can run.
type ModulesResponse struct {
	Modules []string `json:"modules"`
}

// CollectionsResponse lists the stored sample collections.
type CollectionsResponse struct {
	Collections []string `json:"collections"`
}

// CollectionFile is one sample in a collection. A sample can be known by
// several file names.
type CollectionFile struct {
	OID   string   `json:"oid"`
	Names []string `json:"names"`
}

// CollectionFilesResponse lists the samples of one collection.
type CollectionFilesResponse struct {
	Collection string           `json:"collection"`
	CID        string           `json:"cid"`
	Files      []CollectionFile `json:"files"`
}

// ModuleCapability reports whether a chart module has results.
type ModuleCapability struct {
	Module    string `json:"module"`
	Available bool   `json:"available"`
}

// ChartCapabilitiesResponse is the answer of /modules/chart-capabilities.
type ChartCapabilitiesResponse struct {
	RequiredChartModules []ModuleCapability `json:"required_chart_modules"`
}

// RetrieveRequest asks for a module's results over one sample, several
// samples, or a whole collection.
type RetrieveRequest struct {
	Module     string         `json:"module"`
	OID        string         `json:"oid,omitempty"`
	OIDs       []string       `json:"oids,omitempty"`
	Collection string         `json:"collection,omitempty"`
	Opts       map[string]any `json:"opts,omitempty"`
}

// RetrieveResponse carries module results untouched. Results is handed to
// the payload layer as raw bytes.
type RetrieveResponse struct {
	Module  string          `json:"module"`
	Target  json.RawMessage `json:"target"`
	Results json.RawMessage `json:"results"`
}
