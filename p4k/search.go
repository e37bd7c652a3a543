// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

package p4k

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ExterraGroup/scdatatools/cryxml"
	"github.com/hashicorp/go-multierror"
)

// Search returns every entry whose name matches glob, using the same
// slash-normalized, optionally case-insensitive matching as the
// DataCore Binary record index.
//
// Backslashes count as '/', and '*' and '?' also match '/': path.Match
// never lets a wildcard cross a separator, so both separators are
// swapped for NUL on both sides before matching.
func (a *Archive) Search(glob string, caseSensitive bool) ([]*Entry, error) {
	sep := strings.NewReplacer(`\`, "\x00", "/", "\x00")
	pattern := sep.Replace(glob)
	if !caseSensitive {
		pattern = strings.ToLower(pattern)
	}

	var matches []*Entry
	for _, e := range a.entries {
		name := sep.Replace(e.Name)
		if !caseSensitive {
			name = strings.ToLower(name)
		}
		ok, err := path.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("p4k: bad pattern %q: %w", glob, err)
		}
		if ok {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// ExtractOptions configures Extract and ExtractAll.
type ExtractOptions struct {
	// ConvertCryXML additionally writes a sibling "<name>.json" file
	// for any extracted entry that turns out to be a CryXmlB binary
	// document, holding its decoded element tree. The extracted entry
	// itself is always written out untouched.
	ConvertCryXML bool
}

// Extract decodes a single entry and writes it to destPath, creating
// parent directories as needed.
func (a *Archive) Extract(e *Entry, destPath string, opts *ExtractOptions) error {
	r, err := e.Open()
	if err != nil {
		return fmt.Errorf("p4k: extract %q: %w", e.Name, err)
	}
	defer r.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("p4k: extract %q: %w", e.Name, err)
	}

	if opts != nil && opts.ConvertCryXML {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("p4k: extract %q: %w", e.Name, err)
		}
		if err := os.WriteFile(destPath, data, 0o644); err != nil {
			return fmt.Errorf("p4k: extract %q: %w", e.Name, err)
		}
		if cryxml.IsCryXmlB(data) {
			if err := writeCryXMLSidecar(destPath, data); err != nil {
				return fmt.Errorf("p4k: convert %q: %w", e.Name, err)
			}
		}
		return nil
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("p4k: extract %q: %w", e.Name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("p4k: extract %q: %w", e.Name, err)
	}
	return nil
}

// writeCryXMLSidecar decodes a CryXmlB document's element tree and
// writes it as destPath+".json".
func writeCryXMLSidecar(destPath string, data []byte) error {
	root, err := cryxml.ToElementTree(data)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(destPath+".json", encoded, 0o644)
}

// ExtractAll extracts every entry into destDir, preserving the
// archive's internal directory structure. Failures on individual
// entries are collected and returned together rather than aborting the
// whole run, so a single corrupt entry doesn't block extracting the
// rest of the archive.
func (a *Archive) ExtractAll(destDir string, opts *ExtractOptions) error {
	return a.ExtractFilter(destDir, opts, func(*Entry) bool { return true })
}

// ExtractFilter extracts every entry for which keep returns true.
func (a *Archive) ExtractFilter(destDir string, opts *ExtractOptions, keep func(*Entry) bool) error {
	var result *multierror.Error
	for _, e := range a.entries {
		if !keep(e) {
			continue
		}
		dest := filepath.Join(destDir, filepath.FromSlash(e.Name))
		if err := a.Extract(e, dest, opts); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
