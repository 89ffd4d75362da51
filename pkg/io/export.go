package io

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stackscout/pkg/dataset"
	errs "github.com/matzehuels/stackscout/pkg/errors"
	"github.com/matzehuels/stackscout/pkg/observability"
)

// Format names an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats in the order the CLI writes them.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatYAML, FormatXLSX}
}

// ParseFormat accepts a format name case-insensitively. "yml" is YAML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatYAML, FormatXLSX:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported export format %q", s)
}

// Ext returns the file extension for the format, with the leading dot.
func (f Format) Ext() string { return "." + string(f) }

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(records []dataset.Record, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(dataset.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("write %s: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as an indented JSON array. Absent lists are
// written as empty arrays.
func WriteJSON(records []dataset.Record, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalize(records)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML writes records as a YAML sequence.
func WriteYAML(records []dataset.Record, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(normalize(records)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

func normalize(records []dataset.Record) []dataset.Record {
	out := make([]dataset.Record, len(records))
	for i, r := range records {
		if r.Keywords == nil {
			r.Keywords = []string{}
		}
		if r.Categories == nil {
			r.Categories = []string{}
		}
		out[i] = r
	}
	return out
}

// ExportCSV writes records to a CSV file at path.
func ExportCSV(records []dataset.Record, path string) error {
	return exportFile(FormatCSV, records, path, WriteCSV)
}

// ExportJSON writes records to a JSON file at path.
func ExportJSON(records []dataset.Record, path string) error {
	return exportFile(FormatJSON, records, path, WriteJSON)
}

// ExportYAML writes records to a YAML file at path.
func ExportYAML(records []dataset.Record, path string) error {
	return exportFile(FormatYAML, records, path, WriteYAML)
}

// ExportXLSX writes records to a workbook at path.
func ExportXLSX(records []dataset.Record, path string) error {
	return exportFile(FormatXLSX, records, path, WriteXLSX)
}

// Export writes records to path in the given format.
func Export(records []dataset.Record, format Format, path string) error {
	switch format {
	case FormatCSV:
		return ExportCSV(records, path)
	case FormatJSON:
		return ExportJSON(records, path)
	case FormatYAML:
		return ExportYAML(records, path)
	case FormatXLSX:
		return ExportXLSX(records, path)
	}
	return errs.New(errs.ErrCodeInvalidFormat, "unsupported export format %q", format)
}

// Path joins dir, basename and the format extension.
func Path(dir, basename string, format Format) string {
	return filepath.Join(dir, basename+format.Ext())
}

func exportFile(format Format, records []dataset.Record, path string, write func([]dataset.Record, io.Writer) error) (err error) {
	defer func() {
		observability.Collect().OnExport(context.Background(), string(format), len(records), err)
	}()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.ErrCodeExport, err, "create %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeExport, err, "create %s", path)
	}
	if err := write(records, f); err != nil {
		f.Close()
		return errs.Wrap(errs.ErrCodeExport, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeExport, err, "close %s", path)
	}
	return nil
}
