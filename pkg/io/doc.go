// Package io writes collected package records to files and document stores,
// and reads exported datasets back.
//
// # Formats
//
//   - CSV: one row per record, list columns joined with ", "
//   - JSON: an indented array of records, lists kept as arrays
//   - YAML: the same structure as JSON
//   - XLSX: a workbook with the full table plus ranked and grouped sheets
//
// Every format uses the column order of [dataset.Columns].
//
// # Files
//
// The Write* functions take an [io.Writer]. The Export* wrappers create the
// file at path and report the result to the registered collect hooks:
//
//	if err := io.ExportCSV(records, "out/packages.csv"); err != nil {
//	    return err
//	}
//
// [Export] dispatches on a [Format], which is how the CLI writes every
// format named in the configuration.
//
// # Import
//
// [ReadJSON] and [ImportJSON] load a JSON export, so a finished run can be
// summarized or re-exported without collecting again.
//
// # MongoDB
//
// [MongoSink] upserts records into a collection keyed by package name and
// stamps each document with the run ID.
package io
