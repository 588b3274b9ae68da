package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/sdejongh/drivesync/pkg/logging"
	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/snapshot"
)

// Records scans the server tree and computes every directory and file
// checksum
func (e *Engine) Records(ctx context.Context) ([]models.DirectoryRecord, error) {
	tree, err := e.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	e.progress.Start("hashing", tree.FileCount())
	defer e.progress.Finish()

	records, err := e.scanner.Records(ctx, tree)
	if err != nil {
		return nil, fmt.Errorf("failed to compute checksums: %w", err)
	}
	return records, nil
}

// Record stores the current server state as the new snapshot, making it
// the original state of the next run
func (e *Engine) Record(ctx context.Context) (*snapshot.Snapshot, error) {
	ctx = logging.WithOperationID(ctx, e.operation.ID)
	e.logger.Info(ctx, "Recording snapshot", logging.Fields{
		"root":     e.operation.Root,
		"snapshot": e.operation.SnapshotPath,
	})

	records, err := e.Records(ctx)
	if err != nil {
		e.logger.Error(ctx, "Snapshot recording failed", err, nil)
		return nil, err
	}

	snap := &snapshot.Snapshot{
		Root:        e.operation.Root,
		RecordedAt:  time.Now().UTC(),
		Directories: records,
	}
	if err := e.snapshots.Save(ctx, snap); err != nil {
		e.logger.Error(ctx, "Snapshot recording failed", err, nil)
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	e.logger.Info(ctx, "Snapshot recorded", logging.Fields{"directories": len(records)})
	return snap, nil
}
