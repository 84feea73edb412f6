// Package main provides the CLI entrypoint for vrcxinsight.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/vrcxinsight/internal/config"
	"github.com/verte-zerg/vrcxinsight/internal/insightui"
	"github.com/verte-zerg/vrcxinsight/internal/model"
	"github.com/verte-zerg/vrcxinsight/internal/stats"
	"github.com/verte-zerg/vrcxinsight/internal/store"
	"github.com/verte-zerg/vrcxinsight/internal/timeconv"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	dbPath            string
	timezone          string
	tableName         string
	contactName       string
	circularStability bool

	analyzeFormat string
	plotDensity   bool

	// heatmapContact is never filled from config: no flag means all contacts.
	heatmapContact string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vrcxinsight",
		Short:         "Presence analysis for VRCX friend feeds",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runUICmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "path to VRCX.sqlite3")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "Local", "IANA timezone used for wall-clock times")
	rootCmd.PersistentFlags().StringVar(&tableName, "table", "", "feed table (default: first discovered)")
	rootCmd.PersistentFlags().BoolVar(&circularStability, "circular-stability", false, "classify stability with circular std dev")
	rootCmd.Flags().StringVar(&contactName, "contact", "", "contact display name")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTablesCmd())
	rootCmd.AddCommand(newContactsCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newHeatmapCmd())

	return rootCmd
}

// loadSettings merges the config file into flags the user did not set.
func loadSettings(cmd *cobra.Command) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Source.DB)
	applyStringConfig(cmd, "timezone", &timezone, fileCfg.Source.Timezone)
	applyStringConfig(cmd, "table", &tableName, fileCfg.Source.Table)
	applyStringConfig(cmd, "contact", &contactName, fileCfg.Analysis.Contact)
	applyBoolConfig(cmd, "circular-stability", &circularStability, fileCfg.Analysis.CircularStability)
	return nil
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	if err := loadSettings(cmd); err != nil {
		return nil, err
	}
	loc, err := timeconv.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(dbPath, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// resolveTable returns the requested table or, when none was given, the
// first discovered feed table.
func resolveTable(ctx context.Context, st *store.Store, table string) (string, error) {
	if table != "" {
		return table, nil
	}
	tables, err := st.ListFeedTables(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list feed tables: %w", err)
	}
	if len(tables) == 0 {
		return "", fmt.Errorf("no %s tables found in %s", store.FeedTablePattern, dbPath)
	}
	return tables[0], nil
}

func analysisOptions() stats.Options {
	return stats.Options{CircularStability: circularStability}
}

func runUICmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	table := tableName
	if table == "" {
		// The UI form can still pick a table when discovery finds none.
		if resolved, rerr := resolveTable(cmd.Context(), st, ""); rerr == nil {
			table = resolved
		} else {
			logErrf("%v\n", rerr)
		}
	}
	req := model.AnalysisRequest{Table: table, Contact: strings.TrimSpace(contactName)}
	ui := insightui.NewModel(st, req, analysisOptions())
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List friend feed tables",
		Args:  cobra.NoArgs,
		RunE:  runTablesCmd,
	}
}

func runTablesCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	tables, err := st.ListFeedTables(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list feed tables: %w", err)
	}
	if len(tables) == 0 {
		logErrf("No %s tables found in %s\n", store.FeedTablePattern, dbPath)
		return nil
	}
	for _, table := range tables {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), table); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newContactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List contacts with their online event counts",
		Args:  cobra.NoArgs,
		RunE:  runContactsCmd,
	}
}

func runContactsCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	table, err := resolveTable(cmd.Context(), st, tableName)
	if err != nil {
		return err
	}
	contacts, err := st.ListContacts(cmd.Context(), table)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}
	return writeContacts(cmd.OutOrStdout(), contacts)
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse one contact's sessions",
		Args:  cobra.NoArgs,
		RunE:  runAnalyzeCmd,
	}
	cmd.Flags().StringVar(&contactName, "contact", "", "contact display name")
	cmd.Flags().StringVar(&analyzeFormat, "format", formatText, "output format: text, json or yaml")
	cmd.Flags().BoolVar(&plotDensity, "plot", false, "plot the smoothed onset density")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(strings.TrimSpace(analyzeFormat))
	if format != formatText && format != formatJSON && format != formatYAML {
		return fmt.Errorf("--format must be one of text, json, yaml")
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if strings.TrimSpace(contactName) == "" {
		return fmt.Errorf("--contact is required (see: vrcxinsight contacts)")
	}
	table, err := resolveTable(cmd.Context(), st, tableName)
	if err != nil {
		return err
	}
	req := model.AnalysisRequest{Table: table, Contact: contactName}
	report, err := stats.Analyze(cmd.Context(), st, req, timeconv.Now(st.Location()), analysisOptions())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		return writeJSON(out, newAnalysisDoc(report))
	case formatYAML:
		return writeYAML(out, newAnalysisDoc(report))
	}
	if err := stats.RenderReport(out, report, colorStatus); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if plotDensity && len(report.Density) > 0 {
		if _, err := fmt.Fprintln(out, ""); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := stats.PlotDensity(out, "Onset density", report.Density, stats.OnsetHour(report.NowLocal), 0, 0, false); err != nil {
			return fmt.Errorf("failed to plot density: %w", err)
		}
	}
	return nil
}

func newHeatmapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Show weekly online activity by weekday and hour",
		Args:  cobra.NoArgs,
		RunE:  runHeatmapCmd,
	}
	cmd.Flags().StringVar(&heatmapContact, "contact", "", "contact display name (default: all contacts)")
	return cmd
}

func runHeatmapCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	table, err := resolveTable(cmd.Context(), st, tableName)
	if err != nil {
		return err
	}
	report, err := stats.Heatmap(cmd.Context(), st, table, heatmapContact)
	if err != nil {
		return err
	}
	if err := stats.RenderHeatmap(cmd.OutOrStdout(), report, shadeCell); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	created, err := config.EnsureFile(path)
	if err != nil {
		return err
	}
	if created {
		logErrf("Created %s\n", path)
	}

	parts, err := editorCommand(os.Getenv("EDITOR"))
	if err != nil {
		return err
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// editorCommand splits $EDITOR with shell quoting rules, falling back to vi.
func editorCommand(editor string) ([]string, error) {
	editor = strings.TrimSpace(editor)
	if editor == "" {
		editor = "vi"
	}
	parts, err := shlex.Split(editor)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EDITOR: %w", err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}
	return parts, nil
}

func colorStatus(online bool, headline string) string {
	if online {
		return color.New(color.FgGreen, color.Bold).Sprint(headline)
	}
	return color.New(color.FgRed, color.Bold).Sprint(headline)
}

var heatColors = [5]*color.Color{
	nil,
	color.New(color.BgHiYellow, color.FgBlack),
	color.New(color.BgHiGreen, color.FgBlack),
	color.New(color.BgCyan, color.FgBlack),
	color.New(color.BgBlue, color.FgHiWhite),
}

func shadeCell(level int, cell string) string {
	if level <= 0 || level >= len(heatColors) {
		return cell
	}
	return heatColors[level].Sprint(cell)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
