package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/analytics"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/storage"
)

// Setup actions accepted by SetupCommand.
const (
	SetupAll   = "all"
	SetupDB    = "db"
	SetupAdmin = "admin"
)

// SetupCommand prepares a fresh deployment: schema, upload directories and
// the admin account from ADMIN_* variables.
type SetupCommand struct {
	Action string

	cfg *config.Config
	out io.Writer
}

func NewSetupCommand(cfg *config.Config) *SetupCommand {
	return &SetupCommand{Action: SetupAll, cfg: cfg, out: os.Stdout}
}

func (cmd *SetupCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s setup [db|admin|all]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  db     Create tables, upload folders and missing analytics rows\n")
		fmt.Fprintf(os.Stderr, "  admin  Create the admin from ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD\n")
		fmt.Fprintf(os.Stderr, "  all    Both (default)\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() > 0 {
		cmd.Action = fs.Arg(0)
	}
	switch cmd.Action {
	case SetupAll, SetupDB, SetupAdmin:
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown setup action: %s", cmd.Action)
	}
}

func (cmd *SetupCommand) Run() error {
	if cmd.Action == SetupAdmin || cmd.Action == SetupAll {
		if cmd.cfg.Admin.Password == "" {
			return errors.New("no admin password provided, set ADMIN_PASSWORD")
		}
	}

	fmt.Fprintln(cmd.out, "Creating database tables...")
	db, err := openDatabase(cmd.cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	fmt.Fprintln(cmd.out, "Database tables created successfully!")

	if cmd.Action == SetupDB || cmd.Action == SetupAll {
		files, err := storage.NewFileStore(cmd.cfg.Uploads.Dir)
		if err != nil {
			return fmt.Errorf("failed to prepare upload directory: %w", err)
		}
		for _, sub := range []string{config.CoversSubfolder, config.BooksSubfolder} {
			if err := os.MkdirAll(filepath.Join(files.Root(), sub), 0755); err != nil {
				return fmt.Errorf("failed to create %s folder: %w", sub, err)
			}
		}
		fmt.Fprintf(cmd.out, "Upload folders ready under %s\n", files.Root())

		created, err := analytics.NewRepository(db.DB).EnsureRows()
		if err != nil {
			return fmt.Errorf("failed to backfill analytics: %w", err)
		}
		if created > 0 {
			fmt.Fprintf(cmd.out, "Created %d missing analytics rows\n", created)
		}
	}

	if cmd.Action == SetupAdmin || cmd.Action == SetupAll {
		if err := provisionAdmin(cmd.out, users.NewRepository(db.DB), cmd.cfg.Auth.BcryptCost, cmd.cfg.Admin); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.out, "Setup completed!")
	return nil
}
