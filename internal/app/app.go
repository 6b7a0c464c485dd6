// Package app wires the watcher to its store, fetcher and notifier from
// configuration. It is shared by the server and worker binaries.
package app

import (
	"context"

	"seat-notifier/internal/catalog"
	"seat-notifier/internal/config"
	"seat-notifier/internal/db"
	"seat-notifier/internal/logger"
	"seat-notifier/internal/notifier"
	"seat-notifier/internal/watcher"
)

// NewWatcher builds a Watcher from cfg. The returned cleanup closes the
// database connection, if any.
func NewWatcher(ctx context.Context, cfg config.Config, opts ...watcher.Option) (*watcher.Watcher, func(), error) {
	cleanup := func() {}

	var store watcher.Store
	if cfg.DatabaseURL == "" {
		logger.Warnf("DATABASE_URL is not set, subscriptions are kept in memory only")
		store = db.NewMemoryStore()
	} else {
		conn, err := db.InitDB(cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, err
		}
		if err := db.EnsureSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, cleanup, err
		}
		cleanup = func() { conn.Close() }
		store = db.NewSubscriptionStore(conn)
	}

	n, err := newNotifier(cfg.SMTP)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	fetcher, err := catalog.NewFetcher(cfg.ListingURL, cfg.DataURL, cfg.FetchTimeout)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return watcher.New(store, fetcher, n, cfg.ScanInterval, opts...), cleanup, nil
}

func newNotifier(cfg config.SMTPConfig) (notifier.Notifier, error) {
	if !cfg.Enabled() {
		logger.Warnf("SMTP_HOST or MAIL_FROM_ADDRESS is not set, notifications are only logged")
		return notifier.LogNotifier{}, nil
	}
	return notifier.NewMailer(cfg)
}
