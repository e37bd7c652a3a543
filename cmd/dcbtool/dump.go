// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ExterraGroup/scdatatools/cryxml"
	"github.com/ExterraGroup/scdatatools/datacore"
)

var (
	dumpGUID     string
	dumpFilename string
)

func init() {
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump a decoded data file to stdout",
	}

	dcbDumpCmd := &cobra.Command{
		Use:   "dcb <file.dcb>",
		Short: "Dump one or more DataCore Binary records as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDumpDCB(args[0])
		},
	}
	dcbDumpCmd.Flags().StringVar(&dumpGUID, "guid", "", "dump only the record with this GUID")
	dcbDumpCmd.Flags().StringVar(&dumpFilename, "filename", "", "dump only records matching this filename glob")

	cryxmlDumpCmd := &cobra.Command{
		Use:   "cryxml <file>",
		Short: "Dump a CryXmlB document (or plain XML) as XML text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDumpCryXML(args[0])
		},
	}

	dumpCmd.AddCommand(dcbDumpCmd, cryxmlDumpCmd)
	rootCmd.AddCommand(dumpCmd)
}

func runDumpDCB(path string) error {
	f, err := datacore.New(path, &datacore.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records := selectRecords(f)
	if len(records) == 0 {
		return fmt.Errorf("no matching records found")
	}

	for _, r := range records {
		data, err := f.DumpRecordJSON(r)
		if err != nil {
			logger.Warnf("dump record %s: %v", r.ID, err)
			continue
		}
		fmt.Println(string(data))
	}
	return nil
}

func selectRecords(f *datacore.File) []datacore.Record {
	switch {
	case dumpGUID != "":
		id, err := datacore.ParseGUID(dumpGUID)
		if err != nil {
			logger.Errorf("bad guid %q: %v", dumpGUID, err)
			return nil
		}
		r := f.RecordByGUID(id)
		if r == nil {
			return nil
		}
		return []datacore.Record{*r}
	case dumpFilename != "":
		matches, err := f.SearchFilename(dumpFilename, false)
		if err != nil {
			logger.Errorf("search %q: %v", dumpFilename, err)
			return nil
		}
		records := make([]datacore.Record, len(matches))
		for i, m := range matches {
			records[i] = *m
		}
		return records
	default:
		return f.Records()
	}
}

func runDumpCryXML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	root, err := cryxml.ToElementTree(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	fmt.Println(elementToXMLString(root))
	return nil
}

// elementToXMLString renders a parsed cryxml.Element tree back to
// minimal XML text. (The extract command's --convert-cryxml sidecar is
// JSON, not this form.)
func elementToXMLString(el *cryxml.Element) string {
	var sb []byte
	sb = appendElement(sb, el)
	return string(sb)
}

func appendElement(sb []byte, el *cryxml.Element) []byte {
	sb = append(sb, '<')
	sb = append(sb, el.Tag...)
	for _, a := range el.Attrs {
		sb = append(sb, ' ')
		sb = append(sb, a.Name...)
		sb = append(sb, '=', '"')
		sb = append(sb, a.Value...)
		sb = append(sb, '"')
	}
	if el.Text == "" && len(el.Children) == 0 {
		sb = append(sb, '/', '>')
		return sb
	}
	sb = append(sb, '>')
	sb = append(sb, el.Text...)
	for _, c := range el.Children {
		sb = appendElement(sb, c)
	}
	sb = append(sb, '<', '/')
	sb = append(sb, el.Tag...)
	sb = append(sb, '>')
	return sb
}
