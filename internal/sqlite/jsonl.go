package sqlite

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/netherland/pkg/types"
)

// readJSONL reads a JSONL file and returns each non-empty line as a
// json.RawMessage. A malformed line is an error naming its line number.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 || data[0] == '#' {
			continue
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("%s:%d: malformed JSON", path, line)
		}
		cp := make([]byte, len(data))
		copy(cp, data)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(format string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf(format, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadInputs reads a timestep input series, one JSON object per line. Blank
// lines and lines starting with # are skipped. Every input is validated.
func ReadInputs(path string) ([]types.TimestepInput, error) {
	records, err := readJSONL(path)
	if err != nil {
		return nil, err
	}
	inputs := make([]types.TimestepInput, 0, len(records))
	for i, rec := range records {
		var in types.TimestepInput
		dec := json.NewDecoder(bytes.NewReader(rec))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return nil, fmt.Errorf("%w: %s record %d: %v", types.ErrInvalidTimestepInput, path, i+1, err)
		}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("%s record %d: %w", path, i+1, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// WriteLayers writes layers to path as JSONL, bottom first.
func WriteLayers(path string, layers []types.Layer) error {
	return writeRecords(path, layers)
}

// WriteHistory writes step records to path as JSONL.
func WriteHistory(path string, steps []types.StepRecord) error {
	return writeRecords(path, steps)
}

func writeRecords[T any](path string, items []T) error {
	records := make([]json.RawMessage, 0, len(items))
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
		records = append(records, data)
	}
	return writeJSONL(path, records)
}
