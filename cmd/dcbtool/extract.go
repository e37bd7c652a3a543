// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ExterraGroup/scdatatools/p4k"
)

var (
	extractFilter        string
	extractConvertCryXML bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "extract <archive.p4k> <dest-dir>",
		Short: "Extract entries from a P4K archive",
		Long: `The extract command decrypts and decompresses every matching entry
in a P4K archive and writes it to dest-dir, preserving the archive's
internal directory structure.

Example:
  dcbtool extract Data.p4k ./out
  dcbtool extract Data.p4k ./out --filter "Data/Libs/**/*.xml" --convert-cryxml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&extractFilter, "filter", "", "only extract entries matching this glob")
	cmd.Flags().BoolVar(&extractConvertCryXML, "convert-cryxml", false, "also write a decoded .json sidecar for CryXmlB entries")
	rootCmd.AddCommand(cmd)
}

func runExtract(archivePath, destDir string) error {
	a, err := p4k.Open(archivePath, &p4k.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("open %s: %w", archivePath, err)
	}
	defer a.Close()

	opts := &p4k.ExtractOptions{ConvertCryXML: extractConvertCryXML}

	if extractFilter == "" {
		if err := a.ExtractAll(destDir, opts); err != nil {
			return fmt.Errorf("extract: %w", err)
		}
		return nil
	}

	matches, err := a.Search(extractFilter, false)
	if err != nil {
		return fmt.Errorf("filter %q: %w", extractFilter, err)
	}
	keep := make(map[string]bool, len(matches))
	for _, m := range matches {
		keep[m.Name] = true
	}
	if err := a.ExtractFilter(destDir, opts, func(e *p4k.Entry) bool { return keep[e.Name] }); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	return nil
}
