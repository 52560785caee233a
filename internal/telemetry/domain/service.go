package domain

import "context"

// Service answers rollup queries over the synthesized dataset. It is a
// stateless function of (start, end, granularity, filter); any notion of a
// selected view lives in the presentation layer.
type Service interface {
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
}

// DatasetProvider hands out the process-wide dataset, building it on first
// use. Calls within one cache epoch return the identical dataset.
type DatasetProvider interface {
	Get(ctx context.Context) (*Dataset, error)
}
