package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/scoreloom-cli/internal/config"
	"github.com/KaramelBytes/scoreloom-cli/internal/logging"
	"github.com/KaramelBytes/scoreloom-cli/internal/record"
	"github.com/KaramelBytes/scoreloom-cli/internal/service"
	"github.com/KaramelBytes/scoreloom-cli/internal/store"
	"github.com/KaramelBytes/scoreloom-cli/internal/utils"
)

var (
	// Global flags
	cfgFile string
	dbPath  string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:           "scoreloom",
	Short:         "ScoreLoom CLI: track and analyze student exam performance",
	Long:          `ScoreLoom imports student performance records from CSV, TSV and XLSX files, stores them in SQLite without duplicates, and reports summaries, benchmarks and per-student insights for JEE and NEET preparation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.scoreloom/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to ensureConfig
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

func ensureConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// app bundles what a command needs to reach the database.
type app struct {
	log   zerolog.Logger
	store *store.SQLiteStore
	svc   *service.Service
}

// openApp opens the configured store. Outside of serve, info-level chatter is
// suppressed unless --debug is given, since commands print their own results.
func openApp(cmd *cobra.Command) (*app, error) {
	c, err := ensureConfig()
	if err != nil {
		return nil, err
	}
	level := strings.ToLower(c.LogLevel)
	if cmd.Name() != "serve" && (level == "" || level == "info") {
		level = "warn"
	}
	if debug {
		level = "debug"
	}
	log, err := logging.New(level, c.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	path := c.DBPath
	if dbPath != "" {
		path = dbPath
	}
	if path, err = utils.ExpandHome(path); err != nil {
		return nil, err
	}
	dedup, err := store.ParseDedupPolicy(c.DedupPolicy)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cmdContext(cmd), path, store.Options{Dedup: dedup, Logger: log})
	if err != nil {
		return nil, err
	}
	svc := service.New(st, service.Options{
		Validator:  record.NewValidator(c.StrictValidation),
		Benchmarks: c.AnalysisBenchmarks(),
		Logger:     log,
	})
	return &app{log: log, store: st, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close store")
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// filterFlags are the record selection flags shared by several commands.
type filterFlags struct {
	name, subject, track string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "only records of this student")
	cmd.Flags().StringVar(&f.subject, "subject", "", "only records of this subject")
	cmd.Flags().StringVar(&f.track, "track", "", "only records of this course (JEE or NEET)")
}

func (f *filterFlags) filter() (store.Filter, error) {
	return store.NewFilter(f.name, f.subject, f.track)
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
