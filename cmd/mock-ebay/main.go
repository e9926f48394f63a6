// Package main runs a fake eBay token and Browse API server for local
// development. Point ebay.production_url and ebay.sandbox_url at it to use
// ebaybuy without real credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/donaldgifford/ebaybuy/internal/ebay/ebaytest"
	"github.com/donaldgifford/ebaybuy/pkg/logger"
)

type fixtureFile struct {
	ItemSummaries []json.RawMessage `json:"itemSummaries"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixture := flag.String("fixture", "", "search response JSON whose itemSummaries are served")
	count := flag.Int("items", 120, "number of generated items when no fixture is given")
	title := flag.String("title", "drone", "title prefix of generated items")
	expiresIn := flag.Int("expires-in", 7200, "token lifetime in seconds")
	logLevel := flag.String("log-level", "debug", "log level")
	flag.Parse()

	log := logger.New(*logLevel, "text")

	items, err := loadItems(*fixture, *title, *count)
	if err != nil {
		log.Error("failed to load fixture", "path", *fixture, "error", err)
		os.Exit(1)
	}
	log.Info("loaded items", "count", len(items))

	fake := ebaytest.New(
		ebaytest.WithItems(items),
		ebaytest.WithExpiresIn(*expiresIn),
		ebaytest.WithLogger(log),
	)

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting mock eBay server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      fake.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// loadItems reads items from a fixture file, or generates count items when
// path is empty.
func loadItems(path, title string, count int) ([]json.RawMessage, error) {
	if path == "" {
		return ebaytest.Items(title, count), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var f fixtureFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return f.ItemSummaries, nil
}

