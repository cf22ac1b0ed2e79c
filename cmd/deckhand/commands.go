package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kingrea/deckhand/internal/catalog"
	"github.com/kingrea/deckhand/internal/config"
	"github.com/kingrea/deckhand/internal/ledger/store"
	"github.com/kingrea/deckhand/internal/slidescript"
)

var slidesJSON bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .deckhand/ and index the slides directory",
	Long: `Creates the .deckhand directory (config, logs, sessions, state). When the
config has no slide list yet, the Markdown files of the slides directory are
written into it in filename order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(deckDir)
		if err != nil {
			return err
		}
		added, err := indexSlides(cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Initialized %s\n", cfg.DeckhandDir)
		if added > 0 {
			fmt.Fprintf(out, "Indexed %d slides from %s\n", added, cfg.SlidesDir())
		}
		return nil
	},
}

var slidesCmd = &cobra.Command{
	Use:   "slides",
	Short: "List the deck in presentation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(deckDir)
		if err != nil {
			return err
		}
		cat, err := buildCatalog(cfg)
		if err != nil {
			return err
		}
		return printSlides(cmd.OutOrStdout(), cat, slidesJSON)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load every slide and script and report problems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := openDeck(deckDir, deckOptions{store: string(store.BackendMemory)})
		if err != nil {
			return err
		}
		defer d.close()
		problems := validateDeck(cmd.OutOrStdout(), d)
		if problems > 0 {
			return fmt.Errorf("%d slide(s) failed validation", problems)
		}
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List persisted sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(deckDir)
		if err != nil {
			return err
		}
		applyDeckOptions(cfg, deckOptions{store: storeName})
		settings := store.SettingsFromConfig(cfg)
		if settings.Backend == store.BackendMemory {
			fmt.Fprintln(cmd.OutOrStdout(), "The memory store does not persist sessions; use --store file or --store sqlite.")
			return nil
		}
		ids, err := store.ListSessions(settings)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the visit history of a persisted session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if sessionID == "" {
			return errors.New("--session is required")
		}
		d, err := openDeck(deckDir, deckOptions{store: storeName, session: sessionID})
		if err != nil {
			return err
		}
		defer d.close()
		if d.settings.Backend == store.BackendMemory {
			return errors.New("the memory store has nothing to reset; use --store file or --store sqlite")
		}
		before := len(d.ledger.Visited())
		d.presenter.ResetSession()
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d visited slide(s) from session %s\n", before, d.settings.SessionID)
		return nil
	},
}

func init() {
	slidesCmd.Flags().BoolVar(&slidesJSON, "json", false, "Print JSON instead of a table")
}

func indexSlides(cfg *config.Config) (int, error) {
	if len(cfg.Deck.Slides) > 0 {
		return 0, nil
	}
	records, err := catalog.Discover(cfg.SlidesDir())
	if err != nil || len(records) == 0 {
		// An empty or missing slides dir is fine right after init.
		return 0, nil
	}
	for _, r := range records {
		cfg.Deck.Slides = append(cfg.Deck.Slides, config.SlideEntry{ID: r.ID, Path: r.Path, Title: r.Title})
	}
	if err := cfg.SaveDeckConfig(); err != nil {
		return 0, err
	}
	return len(records), nil
}

func printSlides(w io.Writer, cat *catalog.Catalog, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cat.All())
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "ID", "PATH", "TITLE")
	for _, sl := range cat.All() {
		path := sl.Path
		if cat.PathStyle() == catalog.PathStyleParentRelative {
			path = "../" + path
		}
		t.Row(strconv.Itoa(sl.Index+1), sl.ID, path, sl.Title)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// validateDeck loads each slide the way a page load would and reports marker
// and script problems. It returns the number of failing slides.
func validateDeck(w io.Writer, d *deck) int {
	problems := 0
	for _, s := range d.catalog.All() {
		doc, err := d.loader.Load(s.Path)
		if err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", s.ID, err)
			problems++
			continue
		}
		for _, warning := range doc.Warnings {
			fmt.Fprintf(w, "warn %s: %s\n", s.ID, warning)
		}
		steps := 0
		for _, m := range doc.Markers() {
			steps = max(steps, m.Step)
		}
		note := ""
		if path := d.loader.ScriptPath(doc); path != "" {
			if _, err := slidescript.Load(path, nil); err != nil {
				fmt.Fprintf(w, "FAIL %s: %v\n", s.ID, err)
				problems++
				continue
			}
			note = " +script"
		}
		fmt.Fprintf(w, "ok   %s: %q, %d reveal step(s)%s\n", s.ID, doc.Title(), steps, note)
	}
	return problems
}
