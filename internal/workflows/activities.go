package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/ports"
)

// ArchiveRecord is the document pinned for an unsafe location.
type ArchiveRecord struct {
	ID         string    `json:"id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Status     string    `json:"status"`
	ReportedAt time.Time `json:"reportedAt"`
}

// ArchiveActivities holds the activity implementations for the archive workflow.
type ArchiveActivities struct {
	Store     ports.ContentStore
	Locations ports.UnsafeLocationRepository
}

// PinLocation pins the location record and returns its CID.
func (a *ArchiveActivities) PinLocation(ctx context.Context, input ArchiveInput) (string, error) {
	record := ArchiveRecord{
		ID:         input.LocationID,
		Lat:        input.Lat,
		Lng:        input.Lng,
		Status:     string(domain.StatusUnsafe),
		ReportedAt: input.ReportedAt,
	}
	cid, err := a.Store.PinJSON(ctx, "unsafe-"+input.LocationID, record)
	if err != nil {
		return "", fmt.Errorf("pin location %s: %w", input.LocationID, err)
	}
	return cid, nil
}

// RecordArchive stores cid on the location row. A location that no longer
// exists fails without retries.
func (a *ArchiveActivities) RecordArchive(ctx context.Context, locationID, cid string) error {
	if err := a.Locations.SetIPFSHash(ctx, locationID, cid); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return temporal.NewNonRetryableApplicationError("location not found", "NotFound", err, locationID)
		}
		return fmt.Errorf("record archive %s: %w", locationID, err)
	}
	return nil
}

// UnpinLocation removes a pin (saga compensation).
func (a *ArchiveActivities) UnpinLocation(ctx context.Context, cid string) error {
	if err := a.Store.Unpin(ctx, cid); err != nil {
		return fmt.Errorf("unpin %s: %w", cid, err)
	}
	slog.Info("pin removed (saga compensation)", "cid", cid)
	return nil
}
