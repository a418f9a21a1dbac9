package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"

	"cardterm/internal/card"
	"cardterm/internal/config"
	"cardterm/internal/export"
	"cardterm/internal/logging"
	"cardterm/internal/storage"
	"cardterm/internal/theme"
	"cardterm/internal/ui"
)

// version is set during build time via ldflags
var version = "dev"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	command := "tui"
	switch {
	case len(args) > 0 && isHelpFlag(args[0]):
		command, args = "help", args[1:]
	case len(args) > 0 && !strings.HasPrefix(args[0], "-"):
		command, args = args[0], args[1:]
	}

	switch command {
	case "themes":
		return handleThemes(stdout)
	case "version":
		fmt.Fprintf(stdout, "card-term version %s\n", version)
		return nil
	case "help":
		printUsage(stdout)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := logging.OpenFile(cfg.LogPath(), cfg.Config.Level())
	if err != nil {
		return err
	}
	defer closer.Close()

	switch command {
	case "tui":
		err = handleTUI(ctx, cfg, logger, args, stdout)
	case "export":
		err = handleExport(ctx, cfg, logger, args, stdout)
	case "history":
		err = handleHistory(ctx, cfg, args, stdout)
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command: %s", command)
	}
	// -h on a sub-command has already printed its flags.
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "-help", "--help":
		return true
	}
	return false
}

func newFlagSet(name string, stdout io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	return fs
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `card-term - design business cards in the terminal

Usage:
  card-term [tui] [-card FILE]        open the editor
  card-term help | -h                 show this help
  card-term export [flags]            render one card to PNG or PDF
  card-term history [-limit N] [-csv] list recent exports
  card-term themes                    list available themes
  card-term version                   print the version

Export flags:
  -format png|pdf  -out DIR  -card FILE  -scale N
  -name -title -company -phone -email -website -address -theme
`)
}

func openHistory(ctx context.Context, cfg *config.Store) (*storage.Store, error) {
	if !cfg.Config.History {
		return nil, nil
	}
	store, err := storage.Open(ctx, cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func handleTUI(ctx context.Context, cfg *config.Store, logger *log.Logger, args []string, stdout io.Writer) error {
	fs := newFlagSet("tui", stdout)
	cardFile := fs.String("card", "", "Card file to open (yaml or json)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := ui.Options{Config: cfg, Logger: logger}
	if *cardFile != "" {
		c, err := card.LoadFile(*cardFile)
		if err != nil {
			return err
		}
		opts.Card = &c
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		logger.Warn("history unavailable", "err", err)
	}
	if store != nil {
		defer store.Close()
		opts.History = store
	}

	logger.Info("editor started", "output_dir", cfg.Config.OutputDir)
	if err := ui.NewProgram(opts).Run(); err != nil {
		return fmt.Errorf("program terminated: %w", err)
	}
	return nil
}

func handleExport(ctx context.Context, cfg *config.Store, logger *log.Logger, args []string, stdout io.Writer) error {
	fs := newFlagSet("export", stdout)
	format := fs.String("format", "png", "Output format: png or pdf")
	out := fs.String("out", cfg.Config.OutputDir, "Output directory")
	cardFile := fs.String("card", "", "Card file (yaml or json) used as the base")
	scale := fs.Int("scale", cfg.Config.Scale, fmt.Sprintf("Rasterization scale (1-%d)", config.MaxScale))

	values := map[card.Field]*string{}
	for _, field := range card.Fields() {
		values[field] = fs.String(string(field), "", field.Label())
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.ValidateScale(*scale); err != nil {
		return fmt.Errorf("-scale: %w", err)
	}

	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}

	c := card.New()
	c.Theme = cfg.Config.DefaultTheme
	if *cardFile != "" {
		if c, err = card.LoadFile(*cardFile); err != nil {
			return err
		}
	}
	// Only flags given on the command line override the base card.
	var updateErr error
	fs.Visit(func(fl *flag.Flag) {
		field, err := card.ParseField(fl.Name)
		if err != nil {
			return
		}
		if err := c.Update(field, *values[field]); err != nil && updateErr == nil {
			updateErr = err
		}
	})
	if updateErr != nil {
		return updateErr
	}

	opts := []export.Option{export.WithScale(*scale), export.WithLogger(logger)}
	store, err := openHistory(ctx, cfg)
	if err != nil {
		logger.Warn("history unavailable", "err", err)
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, export.WithRecorder(store))
	}

	res, err := export.New(export.DirSink{Dir: *out}, opts...).Export(ctx, export.CardSource{Card: c}, f)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, res.Path)
	return nil
}

func handleHistory(ctx context.Context, cfg *config.Store, args []string, stdout io.Writer) error {
	fs := newFlagSet("history", stdout)
	limit := fs.Int("limit", storage.DefaultLimit, "Number of exports to show")
	asCSV := fs.Bool("csv", false, "Write CSV instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.HistoryPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	if *asCSV {
		return store.WriteExportsCSV(ctx, stdout, *limit)
	}

	exports, err := store.ListExports(ctx, *limit)
	if err != nil {
		return err
	}
	if len(exports) == 0 {
		fmt.Fprintln(stdout, "No exports recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tFORMAT\tTHEME\tFILE\tPATH")
	for _, e := range exports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Format, e.Theme, e.Filename, e.Path)
	}
	return tw.Flush()
}

func handleThemes(stdout io.Writer) error {
	defs := theme.Definitions()
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL")
	for _, id := range theme.IDs() {
		fmt.Fprintf(tw, "%s\t%s\n", id, defs[id].Label)
	}
	return tw.Flush()
}
