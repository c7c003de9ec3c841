// Package cli wires config, storage and the task store into the tally
// command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"tally/internal/config"
	"tally/internal/logging"
	"tally/internal/storage"
	"tally/internal/todo"
	"tally/internal/ui"
)

const closeTimeout = 5 * time.Second

type options struct {
	configPath string
	dbPath     string
	ephemeral  bool
	jsonOut    bool
}

// session is one opened store with everything it depends on.
type session struct {
	cfg    config.Config
	store  *todo.Store
	logger *log.Logger
	closer []io.Closer
}

func (s *session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	err := s.store.Close(ctx)
	for i := len(s.closer) - 1; i >= 0; i-- {
		err = errors.Join(err, s.closer[i].Close())
	}
	return err
}

// closeSession closes s and joins its error into *errp.
func closeSession(s *session, errp *error) {
	*errp = errors.Join(*errp, s.Close())
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand(os.Stdout).Execute()
}

func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "tally",
		Short:        "A small to-do list for the terminal",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (default $TALLY_CONFIG or ~/.config/tally/config.toml)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path, overrides db_path from the config")
	root.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false, "keep tasks in memory only")

	root.AddCommand(addCmd(opts))
	root.AddCommand(listCmd(opts))
	root.AddCommand(toggleCmd(opts))
	root.AddCommand(deleteCmd(opts))
	root.AddCommand(priorityCmd(opts))
	root.AddCommand(clearCmd(opts))
	root.AddCommand(statsCmd(opts))
	return root
}

func loadConfig(opts *options) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	return cfg, nil
}

func openSession(cfg config.Config, opts *options, logger *log.Logger, closers ...io.Closer) (*session, error) {
	if logger == nil {
		logger = logging.New(os.Stderr, cfg.LogLevel, log.TextFormatter)
	}

	var kv storage.KV
	if opts.ephemeral {
		kv = storage.NewMemory()
	} else {
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		kv = db
		closers = append(closers, db)
	}

	adapter := storage.NewAdapter(kv, cfg.StorageKey, logger)
	store := todo.NewStore(adapter,
		todo.WithLogger(logger),
		todo.WithFilter(cfg.Filter()),
	)
	return &session{cfg: cfg, store: store, logger: logger, closer: closers}, nil
}

func runTUI(ctx context.Context, opts *options) (err error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, logFile, err := logging.OpenFile(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	s, err := openSession(cfg, opts, logger, logFile)
	if err != nil {
		logFile.Close()
		return err
	}
	defer closeSession(s, &err)
	logger.Info("starting tui", "db", s.cfg.DBPath, "ephemeral", opts.ephemeral)
	return ui.Run(ctx, s.store, s.cfg, logger)
}

// withStore opens a loaded session, runs fn and flushes every write before
// returning.
func withStore(cmd *cobra.Command, opts *options, fn func(*todo.Store) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	s, err := openSession(cfg, opts, nil)
	if err != nil {
		return err
	}
	s.store.Load(ctx)
	defer closeSession(s, &err)
	return fn(s.store)
}
