// Command ouigen converts the IEEE registration CSV exports (oui.csv,
// cid.csv, iab.csv, mam.csv, oui36.csv) into the sorted assignment table
// compiled into internal/address.
package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"firestige.xyz/pdukit/internal/address"
)

var sources = []string{"oui.csv", "cid.csv", "iab.csv", "mam.csv", "oui36.csv"}

type record struct {
	base   uint64
	prefix int
	name   string
}

func main() {
	dir := flag.String("dir", "oui-sources", "directory holding the IEEE CSV files")
	out := flag.String("out", "oui_table.go", "output file")
	flag.Parse()

	if err := run(*dir, *out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dir, out string) error {
	var records []record
	for _, name := range sources {
		recs, err := readFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		records = append(records, recs...)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].base < records[j].base })

	src, err := render(records)
	if err != nil {
		return err
	}
	return os.WriteFile(out, src, 0o644)
}

func readFile(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

// parse reads Registry,Assignment,Organization Name,Organization Address rows.
func parse(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	assignCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "Assignment":
			assignCol = i
		case "Organization Name":
			nameCol = i
		}
	}
	if assignCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("missing Assignment or Organization Name column")
	}

	var out []record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) <= assignCol || len(row) <= nameCol {
			continue
		}
		hex := strings.TrimSpace(row[assignCol])
		v, err := strconv.ParseUint(hex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("assignment %q: %w", hex, err)
		}
		prefix := len(hex) * 4
		if prefix > 48 {
			return nil, fmt.Errorf("assignment %q longer than a MAC address", hex)
		}
		out = append(out, record{base: v << (48 - prefix), prefix: prefix, name: row[nameCol]})
	}
}

func render(records []record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("// Code generated by ouigen. DO NOT EDIT.\n\npackage address\n\nvar assignments = []Assignment{\n")
	for _, r := range records {
		m := address.MACFromUint64(r.base)
		fmt.Fprintf(&buf, "\t{Range: Subnet[MAC]{base: MAC{0x%02X, 0x%02X, 0x%02X, 0x%02X, 0x%02X, 0x%02X}, prefix: %d}, Abbrv: %q, Name: %q},\n",
			m[0], m[1], m[2], m[3], m[4], m[5], r.prefix, address.Abbreviate(r.name), r.name)
	}
	buf.WriteString("}\n")
	return format.Source(buf.Bytes())
}
