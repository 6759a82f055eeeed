package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ArchiveInput identifies the reported location to archive.
type ArchiveInput struct {
	EventID    string
	LocationID string
	Lat        float64
	Lng        float64
	ReportedAt time.Time
}

// ArchiveResult is the CID the location was pinned under.
type ArchiveResult struct {
	CID string
}

// ArchiveUnsafeLocationWorkflow pins a reported location to IPFS and records
// the CID on the stored row. If recording fails the pin is removed again
// (saga compensation).
func ArchiveUnsafeLocationWorkflow(ctx workflow.Context, input ArchiveInput) (ArchiveResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting archive workflow", "locationID", input.LocationID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	})

	// Step 1: Pin the location record
	var cid string
	if err := workflow.ExecuteActivity(ctx, "PinLocation", input).Get(ctx, &cid); err != nil {
		return ArchiveResult{}, err
	}

	// Step 2: Store the CID on the row
	err := workflow.ExecuteActivity(ctx, "RecordArchive", input.LocationID, cid).Get(ctx, nil)
	if err != nil {
		logger.Warn("record archive failed, compensating", "error", err)
		_ = workflow.ExecuteActivity(ctx, "UnpinLocation", cid).Get(ctx, nil)
		return ArchiveResult{}, err
	}

	logger.Info("Location archived", "locationID", input.LocationID, "cid", cid)
	return ArchiveResult{CID: cid}, nil
}
