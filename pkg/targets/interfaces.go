package targets

import (
	"context"

	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/sirocco"
)

// Fetcher retrieves the payload for a target.
type Fetcher interface {
	Operation() string
	Fetch(ctx context.Context, t Target) (any, error)
}

// FetcherRegistry resolves the fetcher implementation for a given target.
type FetcherRegistry interface {
	FetcherFor(t Target) (Fetcher, error)
}

// API is the subset of *sirocco.Client the fetchers use.
type API interface {
	ForecastInfo(ctx context.Context, p sirocco.ForecastParams) (any, error)
	SelectedForecast(ctx context.Context, p sirocco.RangeParams) (any, error)
	BacktestsInfo(ctx context.Context, p sirocco.RangeParams) (any, error)
	SelectedBacktests(ctx context.Context, p sirocco.BacktestParams) (any, error)
}
