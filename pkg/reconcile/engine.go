// Package reconcile runs the three-way comparison of original, client and
// server state and assembles the resulting report.
package reconcile

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/sdejongh/drivesync/pkg/checksum"
	"github.com/sdejongh/drivesync/pkg/logging"
	"github.com/sdejongh/drivesync/pkg/manifest"
	"github.com/sdejongh/drivesync/pkg/mapping"
	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/output"
	"github.com/sdejongh/drivesync/pkg/pathnorm"
	"github.com/sdejongh/drivesync/pkg/ratelimit"
	"github.com/sdejongh/drivesync/pkg/scan"
	"github.com/sdejongh/drivesync/pkg/snapshot"
	"github.com/sdejongh/drivesync/pkg/storage"
)

// Engine orchestrates a reconciliation run
type Engine struct {
	backend   storage.Backend
	snapshots snapshot.Store
	scanner   *scan.Scanner
	progress  *output.Progress
	logger    logging.Logger
	operation *models.Operation
}

// NewEngine creates a new engine. progress and logger may be nil.
func NewEngine(
	backend storage.Backend,
	snapshots snapshot.Store,
	progress *output.Progress,
	logger logging.Logger,
	operation *models.Operation,
) *Engine {
	if progress == nil {
		progress = output.NewProgress(nil, false)
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	calculator := checksum.NewCalculator(operation.BufferSize, ratelimit.NewLimiter(operation.BandwidthLimit))
	store := checksum.NewStore(backend, calculator, operation.MaxWorkers)
	store.OnFileHashed = func(storage.FileInfo) { progress.Increment() }

	return &Engine{
		backend:   backend,
		snapshots: snapshots,
		scanner:   scan.NewScanner(backend, store, operation.ExcludePatterns),
		progress:  progress,
		logger:    logger,
		operation: operation,
	}
}

// run holds the inputs of one reconciliation
type run struct {
	original *snapshot.Snapshot
	client   *manifest.Manifest
	tree     *scan.Tree
	report   *models.Report
}

// Run compares the stored snapshot, the client manifest and the server
// tree. Directories are compared first; the files of a directory are only
// compared when the directory changed on either side or took part in a
// naming collision.
//
// Errors confined to one directory are recorded in the report, which then
// has status partial. Other errors abort the run with status failed.
func (e *Engine) Run(ctx context.Context) (*models.Report, error) {
	ctx = logging.WithOperationID(ctx, e.operation.ID)
	startTime := time.Now()
	e.operation.StartedAt = &startTime

	report := &models.Report{
		OperationID: e.operation.ID,
		Root:        e.operation.Root,
		StartTime:   startTime,
		Entries:     []models.Entry{},
		Problems:    []models.Problem{},
	}

	e.logger.Info(ctx, "Reconciliation started", logging.Fields{
		"root":     e.operation.Root,
		"client":   e.operation.ClientManifest,
		"snapshot": e.operation.SnapshotPath,
	})

	r, err := e.load(ctx, report)
	if err == nil {
		err = e.compare(ctx, r)
	}

	e.progress.Finish()
	e.finish(report, err)

	if err != nil {
		e.logger.Error(ctx, "Reconciliation failed", err, nil)
		return report, err
	}

	e.logger.Info(ctx, "Reconciliation completed", logging.Fields{
		"status":      report.Status,
		"duration_ms": report.Duration.Milliseconds(),
		"entries":     len(report.Entries),
		"problems":    len(report.Problems),
		"errors":      len(report.Errors),
		"conflicts":   report.Stats.Conflicts,
	})
	return report, nil
}

func (e *Engine) load(ctx context.Context, report *models.Report) (*run, error) {
	original, err := e.snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if original.IsEmpty() {
		e.logger.Info(ctx, "No snapshot recorded yet, every version is new", nil)
	} else if original.Root != "" && original.Root != e.operation.Root {
		e.logger.Warn(ctx, "Snapshot was recorded for another root", logging.Fields{
			"snapshot_root": original.Root,
			"root":          e.operation.Root,
		})
	}

	client := &manifest.Manifest{}
	if e.operation.ClientManifest != "" {
		if client, err = manifest.Load(e.operation.ClientManifest); err != nil {
			return nil, err
		}
	}

	tree, err := e.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Debug(ctx, "Server tree scanned", logging.Fields{
		"folders": tree.FolderCount(),
		"files":   tree.FileCount(),
	})
	e.progress.Start("hashing", tree.FileCount())

	return &run{original: original, client: client, tree: tree, report: report}, nil
}

func (e *Engine) compare(ctx context.Context, r *run) error {
	dirs := mapping.NewDirectoryMapper(
		r.original.DirectoryVersions(),
		r.client.DirectoryVersions(),
		e.scanner.DirectoryVersions(ctx, r.tree),
	)
	recordProblems(ctx, e.logger, r.report, "", dirs.Problems())
	collided := collidedKeys(dirs.Problems())

	for key, cmp := range dirs.All() {
		if err := ctx.Err(); err != nil {
			return err
		}

		clientChange, serverChange, conflicting, err := changes(cmp)
		if err != nil {
			e.recordError(ctx, r.report, key, err)
			continue
		}
		r.report.Stats.DirectoriesCompared++
		addEntry(r.report, models.EntryDirectory, "", key, cmp, clientChange, serverChange, conflicting)

		if !clientChange.IsChanged() && !serverChange.IsChanged() && !collided[pathnorm.FoldKey(key)] {
			continue
		}
		if err := e.compareFiles(ctx, r, key, cmp); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.recordError(ctx, r.report, key, err)
		}
	}
	return nil
}

func (e *Engine) compareFiles(ctx context.Context, r *run, dirKey string, dir *mapping.ThreeWayComparison[models.DirectoryVersion]) error {
	var original, client, server []models.FileVersion

	if v, ok := dir.Original(); ok {
		if record, found := r.original.Directory(v.Path()); found {
			original = record.FileVersions()
		}
	}
	if v, ok := dir.Client(); ok {
		if record, found := r.client.Directory(v.Path()); found {
			client = record.FileVersions()
		}
	}
	if v, ok := dir.Server(); ok {
		files, err := e.scanner.FileVersions(ctx, r.tree, v.Path())
		if err != nil {
			return err
		}
		server = files
	}

	files := mapping.NewFileMapper(original, client, server)
	recordProblems(ctx, e.logger, r.report, dirKey, files.Problems())

	for name, cmp := range files.All() {
		clientChange, serverChange, conflicting, err := changes(cmp)
		if err != nil {
			e.recordError(ctx, r.report, path.Join(dirKey, name), err)
			continue
		}
		r.report.Stats.FilesCompared++
		addEntry(r.report, models.EntryFile, dirKey, name, cmp, clientChange, serverChange, conflicting)
	}
	return nil
}

func changes[T models.Version](cmp *mapping.ThreeWayComparison[T]) (client, server models.Change, conflicting bool, err error) {
	if client, err = cmp.ClientChange(); err != nil {
		return
	}
	if server, err = cmp.ServerChange(); err != nil {
		return
	}
	conflicting, err = cmp.IsConflicting()
	return
}

func addEntry[T models.Version](
	report *models.Report,
	kind models.EntryKind,
	directory, key string,
	cmp *mapping.ThreeWayComparison[T],
	clientChange, serverChange models.Change,
	conflicting bool,
) {
	if !clientChange.IsChanged() && !serverChange.IsChanged() {
		return
	}

	report.Entries = append(report.Entries, models.Entry{
		Kind:         kind,
		Directory:    directory,
		Key:          key,
		Original:     describe(cmp.Original()),
		Client:       describe(cmp.Client()),
		Server:       describe(cmp.Server()),
		ClientChange: clientChange,
		ServerChange: serverChange,
		Conflicting:  conflicting,
	})

	if clientChange.IsChanged() {
		report.Stats.ClientChanges++
	}
	if serverChange.IsChanged() {
		report.Stats.ServerChanges++
	}
	if conflicting {
		report.Stats.Conflicts++
	}
}

// describe renders an optional version, empty when absent
func describe[T models.Version](v T, ok bool) string {
	if !ok {
		return ""
	}
	return models.Describe(v)
}

func recordProblems[T models.Version](ctx context.Context, logger logging.Logger, report *models.Report, directory string, problems *mapping.Problems[T]) {
	if problems.IsEmpty() {
		return
	}
	records := problems.Records(directory)
	for _, p := range records {
		logger.Warn(ctx, "Version left out of mapping", logging.Fields{
			"directory": p.Directory,
			"side":      p.Side,
			"kind":      p.Kind,
			"version":   p.Version,
		})
	}
	logger.Debug(ctx, "Mapping problems", logging.Fields{"directory": directory, "report": problems.String()})

	report.Problems = append(report.Problems, records...)
	report.Stats.Problems += len(records)
}

func (e *Engine) recordError(ctx context.Context, report *models.Report, path string, err error) {
	e.logger.Error(ctx, "Comparison failed", err, logging.Fields{"path": path})
	report.Errors = append(report.Errors, models.ReportError{
		Path:      path,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

func (e *Engine) finish(report *models.Report, err error) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	completed := report.EndTime
	e.operation.CompletedAt = &completed

	switch {
	case err != nil:
		report.Status = models.StatusFailed
	case len(report.Errors) > 0:
		report.Status = models.StatusPartial
	case len(report.Entries) > 0 || len(report.Problems) > 0:
		report.Status = models.StatusChanged
	default:
		report.Status = models.StatusInSync
	}
}

// collidedKeys returns the folded keys of all directory versions that lost
// a naming collision
func collidedKeys(problems *mapping.Problems[models.DirectoryVersion]) map[string]bool {
	keys := make(map[string]bool)
	for _, side := range []models.Side{models.SideClient, models.SideServer} {
		for _, list := range [][]models.DirectoryVersion{
			problems.CaseConflicts(side),
			problems.UnicodeConflicts(side),
			problems.Duplicates(side),
		} {
			for _, v := range list {
				keys[pathnorm.FoldKey(pathnorm.Normalize(v.Path()))] = true
			}
		}
	}
	return keys
}
