// catalog-importer loads JSON catalog files into the dynamic content store.
//
// Each input file holds an ordered array of catalog items in the same
// format as the bundled catalogs, and is imported under the test type
// given by -type (or, with no -type, inferred from the file name, e.g.
// wat.json -> wat).
//
// Usage:
//
//	catalog-importer -db ./data/ssbprep.db [-type wat] file.json [file.json...]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ssbprep/server/internal/domain"
	"github.com/ssbprep/server/internal/store"
)

func main() {
	dbPath := flag.String("db", "./data/ssbprep.db", "path to the SQLite database")
	testType := flag.String("type", "", "test type to import into (default: inferred from file name)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: catalog-importer -db <path> [-type <testType>] <file.json> [file.json...]")
		os.Exit(2)
	}

	repo, err := store.NewSQLite(*dbPath)
	if err != nil {
		exitf("open store: %v", err)
	}
	defer func() {
		_ = repo.Close()
	}()

	ctx := context.Background()
	total := 0
	for _, path := range flag.Args() {
		n, err := importFile(ctx, repo, path, *testType)
		if err != nil {
			exitf("import %s: %v", path, err)
		}
		fmt.Printf("%s: imported %d items\n", path, n)
		total += n
	}
	fmt.Printf("done: %d items\n", total)
}

func importFile(ctx context.Context, catalog store.CatalogStore, path, typeOverride string) (int, error) {
	tt := domain.TestType(typeOverride)
	if tt == "" {
		base := filepath.Base(path)
		tt = domain.TestType(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if !tt.IsValid() {
		return 0, fmt.Errorf("unknown test type %q (use -type)", tt)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var items []domain.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, fmt.Errorf("parse items: %w", err)
	}

	count := 0
	for _, item := range items {
		if item.ID == "" || item.Payload == "" {
			return count, fmt.Errorf("item %d missing id or payload", count)
		}
		if err := catalog.PutItem(ctx, tt, item); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
