package sirocco

import "context"

// Endpoint path segments.
const (
	EndpointTimezones         = "timezones"
	EndpointProjects          = "projects"
	EndpointForecast          = "forecast"
	EndpointSelectedForecast  = "selectedforecast"
	EndpointBacktests         = "backtests"
	EndpointSelectedBacktests = "selectedbacktests"
)

// Timezones lists the timezone labels the API accepts. It is the only
// unauthenticated endpoint.
func (c *Client) Timezones(ctx context.Context) (any, error) {
	return c.fetch(ctx, EndpointTimezones, nil, false)
}

// Projects lists the projects bound to the configured token. With
// returnIDProject set and a successful control flag, the payload is reduced
// to a map from project id to project name.
func (c *Client) Projects(ctx context.Context, returnIDProject bool) (any, error) {
	payload, err := c.fetch(ctx, EndpointProjects, nil, true)
	if err != nil || !returnIDProject {
		return payload, err
	}
	index, err := projectIndex(payload)
	if err != nil {
		return nil, transportError(err)
	}
	return index, nil
}

// ForecastInfo returns the current forecast information of a run.
func (c *Client) ForecastInfo(ctx context.Context, p ForecastParams) (any, error) {
	q, err := p.query()
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, EndpointForecast, q, true)
}

// SelectedForecast returns the latest complete forecast inside the window.
func (c *Client) SelectedForecast(ctx context.Context, p RangeParams) (any, error) {
	q, err := p.query()
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, EndpointSelectedForecast, q, true)
}

// BacktestsInfo returns summary information for each stored backtest.
func (c *Client) BacktestsInfo(ctx context.Context, p RangeParams) (any, error) {
	q, err := p.query()
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, EndpointBacktests, q, true)
}

// SelectedBacktests returns the backtests inside the date window, optionally
// restricted to a lead-time band.
func (c *Client) SelectedBacktests(ctx context.Context, p BacktestParams) (any, error) {
	q, err := p.query()
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, EndpointSelectedBacktests, q, true)
}
