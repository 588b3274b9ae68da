package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/drivesync/pkg/config"
	"github.com/sdejongh/drivesync/pkg/logging"
	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/output"
	"github.com/sdejongh/drivesync/pkg/reconcile"
	"github.com/sdejongh/drivesync/pkg/snapshot"
	"github.com/sdejongh/drivesync/pkg/storage"
)

// session holds everything a command needs to scan a server tree
type session struct {
	cfg       *config.Config
	operation *models.Operation
	backend   *storage.Local
	snapshots snapshot.Store
	logger    logging.Logger
	progress  *output.Progress
}

func newSession(cmd *cobra.Command, f *runFlags, clientManifest string) (*session, error) {
	root, err := validateRoot(f.Root)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagsToConfig(cfg, f)

	operation, err := createOperation(cfg, root, clientManifest)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation: %w", err)
	}

	logger, err := createLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	s := &session{cfg: cfg, operation: operation, logger: logger}

	if s.backend, err = storage.NewLocal(root); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create server backend: %w", err)
	}
	if s.snapshots, err = openSnapshots(operation, logger); err != nil {
		s.Close()
		return nil, err
	}

	showProgress := cfg.Output.Progress && !cfg.Output.Quiet
	if tty, ok := cmd.ErrOrStderr().(*os.File); !ok || !output.IsTerminal(tty) {
		showProgress = false
	}
	s.progress = output.NewProgress(cmd.ErrOrStderr(), showProgress)

	return s, nil
}

func (s *session) engine() *reconcile.Engine {
	return reconcile.NewEngine(s.backend, s.snapshots, s.progress, s.logger, s.operation)
}

// Close releases the session in reverse order of creation
func (s *session) Close() {
	if s.snapshots != nil {
		s.snapshots.Close()
	}
	if s.backend != nil {
		s.backend.Close()
	}
	if s.logger != nil {
		s.logger.Close()
	}
}
