package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/monitoria/schedconv/internal/calendar"
	"github.com/monitoria/schedconv/internal/config"
	"github.com/monitoria/schedconv/internal/publish"
	"github.com/monitoria/schedconv/internal/schedule"
	"github.com/monitoria/schedconv/internal/schema"
	"github.com/monitoria/schedconv/internal/server"
	"github.com/monitoria/schedconv/internal/table"
	"github.com/monitoria/schedconv/internal/tui"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

var rootCmd = &cobra.Command{
	Use:   "schedconv [file.csv]",
	Short: "Convert a monitoring schedule table into the monitores JSON feed",
	Long: "schedconv reads the monitoring schedule spreadsheet exported as CSV, " +
		"prints the JSON feed used by the monitores page and copies it to the clipboard.",
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
	RunE:              runConvert,
}

var convertCmd = &cobra.Command{
	Use:   "convert [file.csv]",
	Short: "Convert a schedule table (opens a file picker when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConvert,
}

var serveCmd = &cobra.Command{
	Use:   "serve [file.csv|file.json]",
	Short: "Serve the feed over HTTP on /monitores",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServe,
}

var icsCmd = &cobra.Command{
	Use:   "ics [file.csv]",
	Short: "Export the schedule as an iCalendar file with weekly events",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runICS,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the feed",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default ~/.config/schedconv/config.toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug details about skipped cells and columns")
	rootCmd.PersistentFlags().String("subject", "", "Top-level key of the feed (default from config)")

	for _, cmd := range []*cobra.Command{rootCmd, convertCmd} {
		cmd.Flags().Bool("no-clipboard", false, "Do not copy the JSON to the clipboard")
		cmd.Flags().StringP("out", "o", "", "Also write the JSON to this file")
	}

	serveCmd.Flags().String("addr", "", "Listen address (default from config)")

	icsCmd.Flags().String("monitor", "", "Only export this monitor's entries")
	icsCmd.Flags().String("week", "", `First week of the events, e.g. "next monday" (default from config)`)
	icsCmd.Flags().StringP("out", "o", "", "Write the calendar to this file instead of stdout")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(icsCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func setupLogger(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if subject, _ := cmd.Flags().GetString("subject"); subject != "" {
		cfg.Document.Subject = subject
	}
	return cfg, nil
}

// selectInput returns the path from args or asks for one with the file picker.
func selectInput(ctx context.Context, args []string, types ...string) (string, error) {
	var src table.Source
	if len(args) > 0 {
		src = table.PathSource(args[0])
	} else {
		src = tui.PickerSource{
			StartDir:     ".",
			AllowedTypes: types,
			Options:      []tea.ProgramOption{tea.WithOutput(os.Stderr)},
		}
	}
	return src.Select(ctx)
}

func parseFile(cfg *config.Config, path string) (*schedule.Document, error) {
	weekdays, err := cfg.WeekdayTable()
	if err != nil {
		return nil, err
	}

	t, err := table.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parser := schedule.NewParser(weekdays,
		schedule.WithLogger(logger),
		schedule.WithDuration(cfg.Document.DurationMinutes),
		schedule.WithObservation(cfg.Document.Observation),
	)
	doc, err := parser.Parse(t)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	noClipboard, _ := cmd.Flags().GetBool("no-clipboard")
	outPath, _ := cmd.Flags().GetString("out")
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path, err := selectInput(ctx, args, ".csv")
	if errors.Is(err, table.ErrNoSelection) {
		fmt.Fprintln(cmd.ErrOrStderr(), "No file selected.")
		return nil
	}
	if err != nil {
		return err
	}

	doc, err := parseFile(cfg, path)
	if err != nil {
		return err
	}

	out, err := schedule.EncodeString(schedule.Feed{Subject: cfg.Document.Subject, Document: doc}, cfg.Output.Indent)
	if err != nil {
		return err
	}

	stats := doc.Stats()
	fanout := publish.NewFanout(publish.Writer{W: cmd.OutOrStdout()}, logger)
	if cfg.Output.Clipboard && !noClipboard {
		fanout.Also("clipboard", publish.NewClipboard())
	}
	if outPath != "" {
		fanout.Also("file", publish.File{Path: outPath})
	}
	if cfg.Output.Notify {
		fanout.Also("notification", publish.NewNotifier("schedconv",
			fmt.Sprintf("%d monitores em %d horários convertidos", stats.Monitors, stats.Slots)))
	}

	// Secondary sink failures are logged by the fanout; stdout already has the JSON.
	if err := fanout.Publish(ctx, out); err != nil && !errors.Is(err, publish.ErrSecondarySink) {
		return fmt.Errorf("writing output: %w", err)
	}

	logger.Debug("converted table",
		"file", path,
		"slots", stats.Slots,
		"monitors", stats.Monitors,
		"entries", stats.Entries,
	)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	path, err := selectInput(ctx, args, ".csv", ".json")
	if errors.Is(err, table.ErrNoSelection) {
		fmt.Fprintln(cmd.ErrOrStderr(), "No file selected.")
		return nil
	}
	if err != nil {
		return err
	}

	feed, err := loadFeed(cfg, path)
	if err != nil {
		return err
	}

	weekdays, err := cfg.WeekdayTable()
	if err != nil {
		return err
	}

	srv, err := server.New(feed, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Schema:         schema.Generate(feed.Subject, weekdays.Codes()),
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on %s/monitores\n", path, displayURL(addr))
	return srv.Run(ctx, addr)
}

// loadFeed reads a previously converted .json feed or converts a .csv table.
func loadFeed(cfg *config.Config, path string) (schedule.Feed, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		f, err := os.Open(path)
		if err != nil {
			return schedule.Feed{}, fmt.Errorf("opening feed: %w", err)
		}
		defer f.Close()
		return schedule.DecodeFeed(f)
	}

	doc, err := parseFile(cfg, path)
	if err != nil {
		return schedule.Feed{}, err
	}
	return schedule.Feed{Subject: cfg.Document.Subject, Document: doc}, nil
}

func displayURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func runICS(cmd *cobra.Command, args []string) error {
	monitor, _ := cmd.Flags().GetString("monitor")
	week, _ := cmd.Flags().GetString("week")
	outPath, _ := cmd.Flags().GetString("out")
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if week == "" {
		week = cfg.Calendar.Week
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	weekdays, err := cfg.WeekdayTable()
	if err != nil {
		return err
	}

	path, err := selectInput(ctx, args, ".csv")
	if errors.Is(err, table.ErrNoSelection) {
		fmt.Fprintln(cmd.ErrOrStderr(), "No file selected.")
		return nil
	}
	if err != nil {
		return err
	}

	doc, err := parseFile(cfg, path)
	if err != nil {
		return err
	}

	now := time.Now()
	weekOf, err := calendar.ResolveWeek(week, now, loc)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating calendar file: %w", err)
		}
		defer f.Close()
		w = f
	}

	n, err := calendar.Export(w, doc, calendar.Options{
		Subject:  cfg.Document.Subject,
		WeekOf:   weekOf,
		Location: loc,
		Duration: time.Duration(cfg.Document.DurationMinutes) * time.Minute,
		Weekdays: weekdays.Codes(),
		Monitor:  monitor,
		Now:      now,
	})
	if err != nil {
		return err
	}

	if outPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d events starting %s to %s\n",
			n, weekOf.Format("2006-01-02"), outPath)
	}
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	weekdays, err := cfg.WeekdayTable()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(schema.Generate(cfg.Document.Subject, weekdays.Codes()), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		var err error
		if configPath, err = config.ConfigPath(); err != nil {
			return err
		}
	}

	if err := config.WriteDefault(configPath); err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	editorPath, err := exec.LookPath(editor)
	if err != nil {
		// If editor fails, just print the path
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editorPath, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
