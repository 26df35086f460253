package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

// JobRunProvider defines the job-run queries required by the jobs
// handler. It is satisfied by the store.
type JobRunProvider interface {
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
}

// JobsHandler exposes the background job run history.
type JobsHandler struct {
	store JobRunProvider
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(s JobRunProvider) *JobsHandler {
	return &JobsHandler{store: s}
}

// ListJobRunsOutput is the job run listing response.
type ListJobRunsOutput struct {
	Body struct {
		Runs []domain.JobRun `json:"runs"`
	}
}

// ListJobRuns returns the most recent run of each background job.
func (h *JobsHandler) ListJobRuns(
	ctx context.Context,
	_ *struct{},
) (*ListJobRunsOutput, error) {
	runs, err := h.store.ListLatestJobRuns(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing job runs: " + err.Error())
	}
	if runs == nil {
		runs = []domain.JobRun{}
	}

	out := &ListJobRunsOutput{}
	out.Body.Runs = runs
	return out, nil
}

// RegisterJobRoutes registers job endpoints with the Huma API.
func RegisterJobRoutes(api huma.API, h *JobsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-job-runs",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "List background job runs",
		Description: "Returns the latest run of each scheduled background job.",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListJobRuns)
}
