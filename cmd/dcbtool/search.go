// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ExterraGroup/scdatatools/datacore"
	"github.com/ExterraGroup/scdatatools/p4k"
)

var searchCaseSensitive bool

func init() {
	cmd := &cobra.Command{
		Use:   "search <file> <glob>",
		Short: "Find records or entries whose filename matches a glob",
		Long: `The search command matches a POSIX-style glob against record
filenames in a DataCore Binary (.dcb) file, or entry names in a P4K
archive, chosen by the input file's extension.

Example:
  dcbtool search game.dcb "*.xml"
  dcbtool search Data.p4k "Data/Libs/**/*.xml"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&searchCaseSensitive, "case-sensitive", false, "match case-sensitively")
	rootCmd.AddCommand(cmd)
}

func runSearch(path, glob string) error {
	if strings.HasSuffix(strings.ToLower(path), ".p4k") {
		return searchP4K(path, glob)
	}
	return searchDCB(path, glob)
}

func searchDCB(path, glob string) error {
	f, err := datacore.New(path, &datacore.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	matches, err := f.SearchFilename(glob, searchCaseSensitive)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	for _, r := range matches {
		fmt.Println(r.ID.String())
	}
	return nil
}

func searchP4K(path, glob string) error {
	a, err := p4k.Open(path, &p4k.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer a.Close()

	matches, err := a.Search(glob, searchCaseSensitive)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	for _, e := range matches {
		fmt.Println(e.Name)
	}
	return nil
}
