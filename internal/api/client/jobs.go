package client

import (
	"context"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

// ListJobs returns the most recent run for each scheduled background job.
func (c *Client) ListJobs(ctx context.Context) ([]domain.JobRun, error) {
	var out struct {
		Runs []domain.JobRun `json:"runs"`
	}
	if err := c.get(ctx, "/api/v1/jobs", &out); err != nil {
		return nil, err
	}
	return out.Runs, nil
}
