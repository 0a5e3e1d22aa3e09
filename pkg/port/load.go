// Skipdb deployments historically seeded their data from flat files of
// "key:value" lines. This module keeps that glue: a preload file named by
// flag is parsed line by line and written into the store through the regular
// Set operation, nothing else.

package port

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/momu/skipdb/pkg/storage"
	"github.com/momu/skipdb/pkg/utils"
)

var preloadFile = flag.String("preload_file", "",
	"Optional file of key:value lines loaded into the store at startup.")

const entrySeparator = ":"

// parseEntry splits a "key:value" line at the first separator. The key must
// be non-empty; the value may be empty. Everything after the first separator
// belongs to the value, so values may contain further separators.
func parseEntry(line string) (utils.Pair[string, string], error) {
	key, value, found := strings.Cut(line, entrySeparator)
	if !found {
		return utils.Pair[string, string]{}, fmt.Errorf("line has no %q separator", entrySeparator)
	}
	if key == "" {
		return utils.Pair[string, string]{}, errors.New("line has an empty key")
	}
	return utils.Pair[string, string]{Key: key, Value: value}, nil
}

// Preload reads `path` and writes every well-formed entry into `store`,
// skipping malformed lines with a warning. It returns the number of loaded
// entries.
func Preload(path string, store storage.KeyValueHolder) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open preload file: %w", err)
	}
	defer func() { _ = file.Close() }()

	loaded := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseEntry(line)
		if err != nil {
			slog.Warn("Skipping malformed preload line.", "line", line, "error", err)
			continue
		}
		if err := store.Set(entry.Key, entry.Value); err != nil {
			return loaded, fmt.Errorf("failed to set preloaded key %q: %w", entry.Key, err)
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("failed to read preload file: %w", err)
	}
	return loaded, nil
}

// MaybePreload runs Preload when the -preload_file flag is set.
func MaybePreload(store storage.KeyValueHolder) error {
	if *preloadFile == "" {
		return nil
	}
	loaded, err := Preload(*preloadFile, store)
	if err != nil {
		return err
	}
	slog.Info("Preloaded entries into the store.", "file", *preloadFile, "entries", loaded)
	return nil
}
