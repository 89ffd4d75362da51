package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/stackscout/pkg/dataset"
	errs "github.com/matzehuels/stackscout/pkg/errors"
)

// ReadJSON decodes a JSON export written by [WriteJSON].
//
// Records without a name are rejected, as are duplicate names, since every
// record in a dataset stands for a distinct package.
func ReadJSON(r io.Reader) ([]dataset.Record, error) {
	var records []dataset.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode dataset")
	}

	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		if rec.Name == "" {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "record %d has no name", i)
		}
		if seen[rec.Name] {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "duplicate record %q", rec.Name)
		}
		seen[rec.Name] = true
	}
	return records, nil
}

// ImportJSON reads a JSON export from a file.
func ImportJSON(path string) ([]dataset.Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
