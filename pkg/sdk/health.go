package sdk

import (
	"context"
	"errors"
	"net/http"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health checks the health of all server components. A degraded server
// responds 503 but still returns a report; that is not treated as an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, &status)
	if err == nil {
		return status, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		// The degraded report is in the error body, not decoded by do().
		// Report degraded without the per-check detail.
		return HealthStatus{Status: "degraded"}, nil
	}
	return HealthStatus{}, err
}
