// cmd/deckhand/main.go
//
// This is the entry point for the deckhand CLI. Running `deckhand` inside a
// deck directory presents it: the TUI, the optional remote control and the
// slide watcher run side by side until the presenter quits.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/deckhand/internal/presenter"
	"github.com/kingrea/deckhand/internal/remote"
	"github.com/kingrea/deckhand/internal/slide"
	"github.com/kingrea/deckhand/internal/tui"
	"github.com/kingrea/deckhand/internal/watch"
)

var (
	deckDir   string
	storeName string
	sessionID string
	keep      bool
	noScripts bool
	noWatch   bool
	remoteOn  bool
	style     string
)

var rootCmd = &cobra.Command{
	Use:   "deckhand",
	Short: "Present Markdown slide decks in the terminal",
	Long: `deckhand presents a directory of Markdown slides.

Each slide may stagger its content across "next" presses with
<!-- reveal-on-next-N --> markers. Slides you have already seen render in
their final state when you come back to them, until the session is reset.

Run without arguments to present the deck in the current directory.`,
	SilenceUsage: true,
	RunE:         runPresent,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&deckDir, "deck", "d", ".", "Deck directory")
	rootCmd.PersistentFlags().StringVar(&storeName, "store", "", "Session store: memory, file or sqlite (overrides config)")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "Resume or target a persisted session")

	rootCmd.Flags().BoolVar(&keep, "keep", false, "Keep the visit history when the presenter exits")
	rootCmd.Flags().BoolVar(&noScripts, "no-scripts", false, "Do not evaluate slide scripts")
	rootCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload slides when files change")
	rootCmd.Flags().BoolVar(&remoteOn, "remote", false, "Start the remote control server")
	rootCmd.Flags().StringVar(&style, "style", slide.DefaultStyle, "Glamour style for slide bodies")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(slidesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func currentOptions() deckOptions {
	return deckOptions{store: storeName, session: sessionID, keep: keep, noScripts: noScripts}
}

func runPresent(cmd *cobra.Command, _ []string) error {
	d, err := openDeck(deckDir, currentOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := d.close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing session: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	settings := remote.SettingsFromConfig(d.cfg)
	if remoteOn {
		settings.Enabled = true
	}
	var remoteURL string
	if settings.Enabled {
		srv := remote.NewServer(settings, d.presenter, remote.WithLogger(d.log.Scoped("remote")))
		if err := srv.Start(gctx); err != nil {
			return err
		}
		remoteURL = srv.BaseURL()
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	app := tui.NewApp(d.presenter,
		tui.FromConfig(d.cfg),
		tui.WithLogbook(d.log),
		tui.WithStyle(style),
		tui.WithRemoteURL(remoteURL),
	)
	prog := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(gctx))
	// Send blocks until the event loop reads it, and observers may fire from
	// inside Update, so hand off on a goroutine.
	unobserve := d.presenter.Observe(func(s presenter.Snapshot) {
		go prog.Send(tui.StateChangedMsg{Snapshot: s})
	})
	defer unobserve()

	if d.cfg.Deck.Watch.Enabled && !noWatch {
		w, err := watch.New(d.cfg.SlidesDir(),
			watch.ReloadCurrent(d.presenter, d.log.Scoped("watch")),
			watch.WithLogger(d.log.Scoped("watch")),
		)
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	g.Go(func() error {
		defer cancel()
		if _, err := prog.Run(); err != nil {
			if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("run TUI: %w", err)
		}
		return nil
	})
	return g.Wait()
}
