package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"mailcal/internal/calendar"
	"mailcal/internal/config"
	"mailcal/internal/event"
	"mailcal/internal/extract"
	"mailcal/internal/gmail"
	"mailcal/internal/llm"
	"mailcal/internal/logx"
	"mailcal/internal/model"
	"mailcal/internal/pipeline"
	"mailcal/internal/store"
	"mailcal/internal/tui"
)

const usage = `Usage: mailcal <command> [flags]

Commands:
  auth      Run the OAuth flow and cache a token
  run       Extract events from recent emails and create calendar entries
  tui       Interactive preview and selection
  history   Show recently created events

Run 'mailcal <command> -h' for command flags.`

func main() {
	// Secrets like OPENAI_API_KEY may live in a local .env file.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fatal(fmt.Errorf("cannot determine home directory: %w", err))
	}
	configDir := filepath.Join(home, ".config", "mailcal")

	switch os.Args[1] {
	case "auth":
		err = runAuth(configDir, os.Args[2:])
	case "run":
		err = runRun(configDir, os.Args[2:])
	case "tui":
		err = runTUI(configDir, os.Args[2:])
	case "history":
		err = runHistory(configDir, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// commonFlags registers the flags shared by run and tui.
type commonFlags struct {
	configPath string
	query      string
	max        int64
	calendarID string
	timedOnly  bool
	debug      bool
}

func registerCommon(fs *flag.FlagSet, configDir string, cf *commonFlags) {
	fs.StringVar(&cf.configPath, "config", filepath.Join(configDir, "config.yaml"), "config file path")
	fs.StringVar(&cf.query, "query", "", "override Gmail search query")
	fs.Int64Var(&cf.max, "max", 0, "override max emails to fetch")
	fs.StringVar(&cf.calendarID, "calendar", "", "override target calendar ID")
	fs.BoolVar(&cf.timedOnly, "timed-only", false, "reject events without a start time instead of making them all-day")
	fs.BoolVar(&cf.debug, "debug", false, "enable debug logging")
}

func loadConfig(cf *commonFlags) (*config.Config, error) {
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cf.query != "" {
		cfg.Query = cf.query
	}
	if cf.max > 0 {
		cfg.MaxEmails = cf.max
	}
	if cf.calendarID != "" {
		cfg.CalendarID = cf.calendarID
	}
	if cf.timedOnly {
		cfg.TimedOnly = true
	}
	if cf.debug {
		logx.SetLevel(logx.LevelDebug)
	}
	return cfg, nil
}

func runAuth(configDir string, args []string) error {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := gmail.Authenticate(ctx, configDir); err != nil {
		return err
	}
	fmt.Println("Authentication successful. Token cached in", configDir)
	return nil
}

// buildPipeline authenticates and wires the full chain.
func buildPipeline(ctx context.Context, configDir string, cfg *config.Config) (*pipeline.Pipeline, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is required")
	}

	client, err := gmail.Authenticate(ctx, configDir)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, client)
	if err != nil {
		return nil, err
	}
	sink, err := calendar.NewGoogleSink(ctx, client)
	if err != nil {
		return nil, err
	}

	journal, err := store.NewJournal(filepath.Join(configDir, "mailcal.db"))
	if err != nil {
		return nil, err
	}

	return &pipeline.Pipeline{
		Source: pipeline.SourceFunc(func(ctx context.Context, query string, max int64) ([]model.RawEmail, error) {
			return gmail.FetchEmails(ctx, svc, query, max)
		}),
		Adapter:       extract.NewAdapter(llm.New(cfg.LLM.BaseURL, apiKey, cfg.LLM.Model), cfg.LLM.MaxBodyChars),
		Materializer:  calendar.NewMaterializer(sink, cfg.CalendarID, cfg.Timezone),
		Journal:       journal,
		Query:         cfg.Query,
		MaxEmails:     cfg.MaxEmails,
		NormalizeOpts: event.Options{TimedOnly: cfg.TimedOnly},
	}, nil
}

func runRun(configDir string, args []string) error {
	var cf commonFlags
	var dryRun, yes bool
	var selectStr string
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	registerCommon(fs, configDir, &cf)
	fs.BoolVar(&dryRun, "dry-run", false, "preview only, create nothing")
	fs.BoolVar(&yes, "yes", false, "create all previewed events without asking")
	fs.StringVar(&selectStr, "select", "", "comma-separated event numbers to create, e.g. 0,2,5")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(&cf)
	if err != nil {
		return err
	}

	ctx := context.Background()
	p, err := buildPipeline(ctx, configDir, cfg)
	if err != nil {
		return err
	}
	defer p.Journal.Close()

	batch, err := p.Preview(ctx)
	if err != nil {
		if errors.Is(err, gmail.ErrNoMessages) {
			fmt.Println("No emails found.")
			return nil
		}
		return err
	}
	printPreview(batch)
	if len(batch.Events) == 0 || dryRun {
		return nil
	}

	var summary *pipeline.Summary
	switch {
	case selectStr != "":
		ordinals, err := parseOrdinals(selectStr)
		if err != nil {
			return err
		}
		summary, err = p.Commit(ctx, batch, ordinals)
		if errors.Is(err, pipeline.ErrNoSelection) {
			fmt.Println("No events selected.")
			return nil
		}
		if err != nil {
			return err
		}
	case yes || confirm(fmt.Sprintf("Create %d events? [y/N] ", len(batch.Events))):
		summary, err = p.CommitAll(ctx, batch)
		if err != nil {
			return err
		}
	default:
		fmt.Println("No events selected.")
		return nil
	}

	printSummary(summary)
	return nil
}

func runTUI(configDir string, args []string) error {
	var cf commonFlags
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	registerCommon(fs, configDir, &cf)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(&cf)
	if err != nil {
		return err
	}

	ctx := context.Background()
	p, err := buildPipeline(ctx, configDir, cfg)
	if err != nil {
		return err
	}
	defer p.Journal.Close()

	appModel := tui.NewAppModel(p)
	finalModel, err := tea.NewProgram(&appModel, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(*tui.AppModel); ok && m.Err != nil {
		if errors.Is(m.Err, gmail.ErrNoMessages) {
			fmt.Println("No emails found.")
			return nil
		}
		return m.Err
	}
	return nil
}

func runHistory(configDir string, args []string) error {
	var limit int
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	fs.IntVar(&limit, "n", 20, "number of entries to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	journal, err := store.NewJournal(filepath.Join(configDir, "mailcal.db"))
	if err != nil {
		return err
	}
	defer journal.Close()

	entries, err := journal.RecentCreated(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No events created yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  %s\n", e.CreatedAt, e.StartDate, e.Title)
		if e.Link != "" {
			fmt.Printf("    %s\n", e.Link)
		}
	}
	return nil
}

func printPreview(batch *pipeline.Batch) {
	if len(batch.Events) == 0 {
		fmt.Printf("No events found in %d emails.\n", batch.TotalEmails)
		return
	}
	fmt.Printf("Found %d events in %d emails:\n\n", len(batch.Events), batch.TotalEmails)
	for _, e := range batch.Events {
		fmt.Printf("  [%d] %s — %s\n", e.Ordinal, e.Title, formatWhen(e))
		if e.Location != "" {
			fmt.Printf("      at %s\n", e.Location)
		}
		fmt.Printf("      from: %s\n", e.SourceSubject)
	}
	fmt.Println()
}

func printSummary(s *pipeline.Summary) {
	fmt.Printf("Created %d of %d events.\n", s.Succeeded, s.Attempted)
	for _, r := range s.Results {
		if r.Err != nil {
			fmt.Printf("  failed: %s (%v)\n", r.Event.Title, r.Err)
		} else if r.Handle.Link != "" {
			fmt.Printf("  %s  %s\n", r.Event.Title, r.Handle.Link)
		}
	}
}

func formatWhen(e model.NormalizedEvent) string {
	if e.Timed() {
		return fmt.Sprintf("%s %s–%s", e.StartDate, e.StartTime, e.EndTime)
	}
	if e.EndDate != e.StartDate {
		return fmt.Sprintf("%s → %s (all day)", e.StartDate, e.EndDate)
	}
	return e.StartDate + " (all day)"
}

func parseOrdinals(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid event number %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}
