// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/leseb/fal-drivertest/pkg/conformance"
	"github.com/leseb/fal-drivertest/pkg/core/config"
	"github.com/leseb/fal-drivertest/pkg/driver"
	_ "github.com/leseb/fal-drivertest/pkg/driver/all"
	"github.com/leseb/fal-drivertest/pkg/observability/logging"
	"github.com/leseb/fal-drivertest/pkg/storage"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes.
const (
	exitOK          = 0
	exitSuiteFailed = 1
	exitConfig      = 2
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configError(err error) error {
	return &exitError{code: exitConfig, err: err}
}

var errSuiteFailed = &exitError{code: exitSuiteFailed, err: errors.New("conformance suite failed")}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitSuiteFailed
}

func newApp(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "drivertest",
		Usage:   "Run the storage driver conformance suite against a configured storage",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Writer:  stdout,
		Action:  runSuite,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional configuration file",
				Sources: cli.EnvVars("FAL_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "storage",
				Aliases: []string{"s"},
				Usage:   "Identifier of the storage to test",
				Sources: cli.EnvVars(config.EnvStorage),
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Storage catalog type: static, yaml or sql",
			},
			&cli.StringFlag{
				Name:  "catalog-path",
				Usage: "Path of the yaml storage catalog",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "Data source name of the sql storage catalog",
			},
			&cli.StringFlag{
				Name:  "sql-driver",
				Usage: "SQL driver of the sql storage catalog: sqlite or pgx",
			},
			&cli.StringFlag{
				Name:    "run",
				Aliases: []string{"r"},
				Usage:   "Only run scenarios whose name matches this regular expression",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: table or json",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "storages",
				Usage:  "List the storages known to the configured catalog",
				Action: listStorages,
				Commands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Add or replace a storage record in the sql catalog",
						ArgsUsage: "[key=value ...]",
						Action:    addStorage,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "uid", Usage: "Storage identifier"},
							&cli.StringFlag{Name: "name", Usage: "Storage name"},
							&cli.StringFlag{Name: "driver", Usage: "Driver serving the storage, e.g. local or s3"},
						},
					},
				},
			},
			{
				Name:   "scenarios",
				Usage:  "List the conformance scenarios in execution order",
				Action: listScenarios,
			},
		},
	}
}

// loadConfig builds the configuration from the optional config file, the
// environment and finally command-line flags.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := map[string]*string{
		"storage":      &cfg.Storage,
		"catalog":      &cfg.Catalog.Type,
		"catalog-path": &cfg.Catalog.Path,
		"dsn":          &cfg.Catalog.DSN,
		"sql-driver":   &cfg.Catalog.SQLDriver,
		"format":       &cfg.Report.Format,
		"log-level":    &cfg.Logging.Level,
		"log-format":   &cfg.Logging.Format,
	}
	for name, field := range overrides {
		if v := cmd.String(name); v != "" {
			*field = v
		}
	}
	if cmd.String("catalog") == "" && (cmd.String("dsn") != "" || cmd.String("catalog-path") != "") {
		cfg.Catalog.Type = ""
	}
	config.ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

func runSuite(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return configError(fmt.Errorf("load configuration: %w", err))
	}
	logger := newLogger(cfg)

	id, err := cfg.StorageID()
	if err != nil {
		return configError(fmt.Errorf("No storage defined to test against. Define it with setting the environment variable %s: %w", config.EnvStorage, err))
	}

	opts := []conformance.Option{conformance.WithLogger(logger.Logger)}
	if pattern := cmd.String("run"); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return configError(fmt.Errorf("invalid --run pattern: %w", err))
		}
		opts = append(opts, conformance.WithFilter(re))
	}

	catalog, err := cfg.OpenCatalog(ctx)
	if err != nil {
		return configError(fmt.Errorf("open storage catalog: %w", err))
	}
	defer catalog.Close()

	handle, err := storage.Resolve(ctx, id, catalog)
	if err != nil {
		return configError(fmt.Errorf("resolve storage %s: %w", id, err))
	}
	defer func() {
		if err := handle.Close(context.Background()); err != nil {
			logger.Warn("Failed to close storage driver", "error", err)
		}
	}()

	label := handle.Record.Label()
	logger.Info("Running conformance suite", "storage", label, "driver", handle.Record.Driver)

	opts = append(opts, conformance.WithStorageLabel(label))
	report := conformance.NewRunner(handle.Driver, opts...).Run(ctx)

	out := cmd.Root().Writer
	if cfg.Report.Format == "json" {
		err = report.WriteJSON(out)
	} else {
		err = report.WriteTable(out)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !report.OK() {
		return errSuiteFailed
	}
	return nil
}

func listStorages(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return configError(fmt.Errorf("load configuration: %w", err))
	}

	catalog, err := cfg.OpenCatalog(ctx)
	if err != nil {
		return configError(fmt.Errorf("open storage catalog: %w", err))
	}
	defer catalog.Close()

	records, err := catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("list storages: %w", err)
	}

	table := newTable(cmd.Root().Writer, "UID", "Name", "Driver")
	for _, rec := range records {
		table.Append([]string{rec.UID.String(), rec.Name, rec.Driver})
	}
	table.Render()
	return nil
}

// addStorage writes a storage record built from flags and key=value
// arguments. Only the sql catalog is writable.
func addStorage(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return configError(fmt.Errorf("load configuration: %w", err))
	}

	id, err := storage.ParseStorageID(cmd.String("uid"))
	if err != nil {
		return configError(fmt.Errorf("invalid --uid: %w", err))
	}
	rec := storage.Record{
		UID:           id,
		Name:          cmd.String("name"),
		Driver:        cmd.String("driver"),
		Configuration: map[string]string{},
	}
	for _, arg := range cmd.Args().Slice() {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return configError(fmt.Errorf("configuration %q is not key=value", arg))
		}
		rec.Configuration[key] = value
	}
	if err := driver.Drivers.Validate(rec.Driver, rec.Configuration); err != nil {
		return configError(err)
	}

	catalog, err := cfg.OpenCatalog(ctx)
	if err != nil {
		return configError(fmt.Errorf("open storage catalog: %w", err))
	}
	defer catalog.Close()

	writable, ok := catalog.(*storage.SQLCatalog)
	if !ok {
		return configError(fmt.Errorf("the %s storage catalog is read-only, use --dsn to target a sql catalog", cfg.Catalog.Type))
	}
	if err := writable.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := writable.Put(ctx, rec); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "Stored storage %s\n", rec.Label())
	return err
}

func listScenarios(_ context.Context, cmd *cli.Command) error {
	table := newTable(cmd.Root().Writer, "Scenario", "Checks")
	for _, sc := range conformance.Scenarios() {
		table.Append([]string{sc.Name, sc.Description})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(os.Stdout).Run(ctx, os.Args)
	if err != nil && !errors.Is(err, errSuiteFailed) {
		slog.Error("drivertest failed", slog.String("error", err.Error()))
	}
	stop()
	os.Exit(exitCode(err))
}
