// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials kept as one file per key under
// .secrets/. The file name is the key; the trimmed contents are the value.
// Secrets are the lowest-precedence credential source: anything set in the
// environment, a flag, or the config file wins.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Credential keys understood by research-radar.
const (
	AnthropicAPIKey       = "anthropic-api-key"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	PapersWithCodeAPIKey  = "papers-with-code-api-key"
	OpenAlexEmail         = "openalex-email"
)

// Known lists every credential key, in the order they are documented.
var Known = []string{AnthropicAPIKey, SemanticScholarAPIKey, PapersWithCodeAPIKey, OpenAlexEmail}

// Load reads the known credential files in dir. A missing directory or
// file is not an error. Unreadable files are logged and skipped, and files
// that match no known key are reported at debug level so a misspelled name
// is easy to spot.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	switch {
	case os.IsNotExist(err):
		return map[string]string{}, nil
	case err != nil:
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	found := make(map[string]string, len(Known))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !slices.Contains(Known, name) {
			logger.Debug("ignoring unknown secret file", zap.String("name", name))
			continue
		}

		value, err := readValue(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value != "" {
			found[name] = value
		}
	}
	return found, nil
}

func readValue(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Names returns the loaded keys in documented order, for logging which
// credentials came from files. Values are never exposed.
func Names(found map[string]string) []string {
	var names []string
	for _, k := range Known {
		if _, ok := found[k]; ok {
			names = append(names, k)
		}
	}
	return names
}
