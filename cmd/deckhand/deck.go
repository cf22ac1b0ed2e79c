package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kingrea/deckhand/internal/catalog"
	"github.com/kingrea/deckhand/internal/config"
	"github.com/kingrea/deckhand/internal/ledger"
	"github.com/kingrea/deckhand/internal/ledger/store"
	"github.com/kingrea/deckhand/internal/logbook"
	"github.com/kingrea/deckhand/internal/presenter"
	"github.com/kingrea/deckhand/internal/slide"
)

// deckOptions are command-line overrides applied on top of the config file.
type deckOptions struct {
	store     string
	session   string
	keep      bool
	noScripts bool
}

// deck bundles everything a command needs to drive one presentation.
type deck struct {
	cfg       *config.Config
	log       *logbook.Logbook
	settings  store.Settings
	session   store.Session
	ledger    *ledger.Ledger
	catalog   *catalog.Catalog
	loader    *slide.Loader
	presenter *presenter.Presenter
}

func loadConfig(dir string) (*config.Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve deck dir: %w", err)
	}
	if err := config.InitDeckhandDir(abs); err != nil {
		return nil, fmt.Errorf("init %s: %w", config.DeckhandDir, err)
	}
	return config.NewConfig(abs)
}

func applyDeckOptions(cfg *config.Config, opts deckOptions) {
	if v := strings.TrimSpace(opts.store); v != "" {
		cfg.Deck.Session.Store = strings.ToLower(v)
	}
	if v := strings.TrimSpace(opts.session); v != "" {
		cfg.Deck.Session.ID = v
		// Naming a session means it should survive this run.
		cfg.Deck.Session.Keep = true
	}
	if opts.keep {
		cfg.Deck.Session.Keep = true
	}
}

// buildCatalog uses the configured slide list, falling back to the Markdown
// files of the slides directory in filename order.
func buildCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	var records []catalog.SlideRecord
	for _, s := range cfg.Deck.Slides {
		records = append(records, catalog.SlideRecord{ID: s.ID, Path: s.Path, Title: s.Title})
	}
	if len(records) == 0 {
		discovered, err := catalog.Discover(cfg.SlidesDir())
		if err != nil {
			return nil, err
		}
		records = discovered
	}
	return catalog.New(records, catalog.WithPathStyle(catalog.PathStyle(cfg.Deck.PathStyle)))
}

func openDeck(dir string, opts deckOptions) (*deck, error) {
	cfg, err := loadConfig(dir)
	if err != nil {
		return nil, err
	}
	applyDeckOptions(cfg, opts)
	lb, err := logbook.Open(cfg.LogsDir())
	if err != nil {
		return nil, err
	}
	cat, err := buildCatalog(cfg)
	if err != nil {
		lb.Close()
		return nil, err
	}
	settings := store.SettingsFromConfig(cfg)
	sess, err := store.Open(settings)
	if err != nil {
		lb.Close()
		return nil, err
	}
	led := ledger.New(sess, ledger.WithLogger(lb.Scoped("ledger")))
	loader := slide.NewLoader(cfg.SlidesDir())
	p := presenter.New(cat, led, loader,
		presenter.WithLogger(lb),
		presenter.WithScripts(!opts.noScripts),
	)
	lb.Info("Session %s opened (%s store, %d slides)", settings.SessionID, settings.Backend, cat.Len())
	return &deck{
		cfg:       cfg,
		log:       lb,
		settings:  settings,
		session:   sess,
		ledger:    led,
		catalog:   cat,
		loader:    loader,
		presenter: p,
	}, nil
}

// close ends the session. Unless the session is kept its visit history is
// dropped, so the next run starts with every slide unvisited.
func (d *deck) close() error {
	if d == nil || d.session == nil {
		return nil
	}
	var errs []error
	if !d.settings.Keep {
		if err := d.session.EndSession(); err != nil {
			errs = append(errs, fmt.Errorf("end session: %w", err))
		}
	}
	if err := d.session.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	d.log.Info("Session %s closed (kept=%t)", d.settings.SessionID, d.settings.Keep)
	if err := d.log.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close logbook: %w", err))
	}
	return errors.Join(errs...)
}
