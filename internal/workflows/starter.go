package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/metrics"
)

// WorkflowStarter is the part of client.Client the starter needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Archiver starts one archive workflow per reported location.
type Archiver struct {
	client    WorkflowStarter
	taskQueue string
}

// NewArchiver creates a new Archiver.
func NewArchiver(c WorkflowStarter, taskQueue string) *Archiver {
	return &Archiver{client: c, taskQueue: taskQueue}
}

// HandleUnsafeReported starts the archive workflow for event. The workflow ID
// is derived from the location, so a redelivered event does not archive twice
// and is acknowledged once the archive exists.
func (a *Archiver) HandleUnsafeReported(ctx context.Context, event *domain.UnsafeLocationReported) error {
	opts := client.StartWorkflowOptions{
		ID:                    "archive-" + event.Location.ID,
		TaskQueue:             a.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}
	input := ArchiveInput{
		EventID:    event.EventID,
		LocationID: event.Location.ID,
		Lat:        event.Location.Lat,
		Lng:        event.Location.Lng,
		ReportedAt: event.ReportedAt,
	}

	if _, err := a.client.ExecuteWorkflow(ctx, opts, ArchiveUnsafeLocationWorkflow, input); err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			slog.InfoContext(ctx, "archive already started", "location_id", event.Location.ID, "run_id", started.RunId)
			metrics.ArchiveWorkflows.WithLabelValues("duplicate").Inc()
			return nil
		}
		metrics.ArchiveWorkflows.WithLabelValues("error").Inc()
		return fmt.Errorf("start archive workflow: %w", err)
	}
	metrics.ArchiveWorkflows.WithLabelValues("started").Inc()
	return nil
}
