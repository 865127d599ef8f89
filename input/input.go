// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

// Package input reads the list of addresses to assign from a CSV file with
// an "address" column.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/treepickup/pickup/geocode"
)

// AddressColumn is the header of the column holding the addresses.
const AddressColumn = "address"

// Error is an input problem the user has to fix in the file.
type Error struct {
	Message string
	Action  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Hint returns the corrective action for the user.
func (e *Error) Hint() string {
	return e.Action
}

// Row is a data row of the input file. Other columns are ignored.
type Row struct {
	Address string `csv:"address"`
}

// ReadFile reads the addresses of the CSV file at path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, &Error{Message: "file not found: " + path, Action: "check the path of the addresses file"}
		case errors.Is(err, fs.ErrPermission):
			return nil, &Error{Message: "permission denied: cannot read " + path, Action: "check file permissions"}
		default:
			return nil, eris.Wrapf(err, "input: open %s", path)
		}
	}
	defer f.Close()

	return Read(f)
}

// Read returns the non-blank addresses of a CSV document in file order.
// Addresses that are equal once normalized are rejected as duplicates.
func Read(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &Error{Message: "CSV missing header row", Action: "add a header row with an 'address' column"}
	}

	if err != nil {
		return nil, &Error{Message: "CSV is malformed", Action: "check the file is a valid CSV", Err: err}
	}

	for i, col := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
	}

	dec, err := csvutil.NewDecoder(reader, header...)
	if err != nil {
		return nil, eris.Wrap(err, "input: csv decoder")
	}

	dec.DisallowMissingColumns = true

	var (
		addresses []string
		seen      = map[string]int{}
		row       = 1
	)

	for {
		var rec Row

		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}

		var missing *csvutil.MissingColumnsError
		if errors.As(err, &missing) {
			return nil, &Error{
				Message: "CSV missing 'address' column",
				Action:  "ensure your CSV has a header row with an 'address' column",
			}
		}

		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("CSV is malformed near row %d", row+1), Action: "check the file is a valid CSV", Err: err}
		}

		row++

		address := strings.TrimSpace(rec.Address)
		if address == "" {
			continue
		}

		if !utf8.ValidString(address) {
			return nil, &Error{
				Message: fmt.Sprintf("row %d is not valid UTF-8", row),
				Action:  "save the file with UTF-8 encoding",
			}
		}

		key := geocode.NormalizeKey(address)
		if first, dup := seen[key]; dup {
			return nil, &Error{
				Message: fmt.Sprintf("duplicate address found: '%s' (rows %d and %d)", address, first, row),
				Action:  "remove duplicates and try again",
			}
		}

		seen[key] = row
		addresses = append(addresses, address)
	}

	if len(addresses) == 0 {
		if !containsColumn(header, AddressColumn) {
			return nil, &Error{
				Message: "CSV missing 'address' column",
				Action:  "ensure your CSV has a header row with an 'address' column",
			}
		}

		return nil, &Error{Message: "CSV contains no addresses", Action: "add addresses to your CSV file"}
	}

	return addresses, nil
}

func containsColumn(header []string, name string) bool {
	for _, col := range header {
		if col == name {
			return true
		}
	}

	return false
}
