package main

import (
	"errors"
	"fmt"

	"github.com/kjk/appregistry/config"
	"github.com/kjk/appregistry/filestore"
	"github.com/kjk/appregistry/journalstore"
	"github.com/kjk/appregistry/log"
	"github.com/kjk/appregistry/miniostore"
	"github.com/kjk/appregistry/regpath"
	"github.com/kjk/appregistry/regstore"
	"github.com/kjk/appregistry/winreg"
	"github.com/spf13/cobra"
)

type cli struct {
	cfgPath string
	org     string
	app     string
	backend string
	dir     string
	verbose bool

	cfg   *config.Config
	store regstore.Store
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:               "appregistry",
		Short:             "Inspect and edit settings stored by applications",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	f := rootCmd.PersistentFlags()
	f.StringVarP(&c.cfgPath, "config", "c", "", "configuration file (.yaml or .json)")
	f.StringVar(&c.org, "org", "", "organization")
	f.StringVar(&c.app, "app", "", "application")
	f.StringVar(&c.backend, "backend", "", "store: file, journal, minio or winreg")
	f.StringVar(&c.dir, "dir", "", "data directory of file and journal stores")
	f.BoolVar(&c.verbose, "verbose", false, "verbose logging")

	rootCmd.AddCommand(
		c.listCmd(),
		c.getCmd(),
		c.setCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.historyCmd(),
	)
	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("org") {
		cfg.Organization = c.org
	}
	if flags.Changed("app") {
		cfg.Application = c.app
	}
	if flags.Changed("backend") {
		cfg.Backend = c.backend
	}
	if flags.Changed("dir") {
		cfg.Dir = c.dir
	}
	if flags.Changed("verbose") {
		cfg.Verbose = c.verbose
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	if cfg.Organization == "" || cfg.Application == "" {
		return errors.New("organization and application are required (--org, --app)")
	}
	c.cfg = cfg

	log.Output = cmd.ErrOrStderr()
	log.Verbose = cfg.Verbose
	if cfg.LogDir != "" {
		log.Init(&log.Config{Dir: cfg.LogDir})
	}
	c.store, err = openStore(cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	log.Verbosef("using %s store\n", cfg.Backend)
	return nil
}

func openStore(cfg *config.Config) (regstore.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return filestore.New(cfg.Dir), nil
	case config.BackendJournal:
		s := &journalstore.Store{DataDir: cfg.Dir}
		if err := journalstore.OpenStore(s); err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMinio:
		return miniostore.New(&cfg.Minio)
	case config.BackendWinreg:
		return winreg.Store{}, nil
	}
	return nil, fmt.Errorf("unknown backend '%s'", cfg.Backend)
}

// path returns location of settings type typeName
func (c *cli) path(typeName string) string {
	return regpath.Path(c.cfg.Organization, c.cfg.Application, typeName)
}
