// Package jsondb is a file-backed storage: the state lives in memory
// while the process runs and is written to a JSON file on Close.
package jsondb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patric-chuzhbe/bookmarks/internal/db/memorystorage"
)

type JSONDB struct {
	*memorystorage.MemoryStorage
	fileName string
}

// writeToJSONFile replaces fileName with the encoded data. The data goes to a
// temporary file in the same directory first, so a failed write never leaves
// a truncated snapshot behind.
func writeToJSONFile(fileName string, data interface{}) (err error) {
	jsonData, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.CreateTemp(filepath.Dir(fileName), filepath.Base(fileName)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(file.Name())
		}
	}()

	if _, err = file.Write(jsonData); err != nil {
		_ = file.Close()
		return fmt.Errorf("error writing to file: %w", err)
	}

	if err = file.Chmod(0600); err != nil {
		_ = file.Close()
		return fmt.Errorf("error setting file mode: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}

	if err = os.Rename(file.Name(), fileName); err != nil {
		return fmt.Errorf("error replacing file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, data *memorystorage.Data) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(data)
}

// New loads the state from fileName. A missing file means an empty storage;
// the file is created on the first Close.
func New(fileName string) (*JSONDB, error) {
	var data memorystorage.Data

	err := parseJSONFile(fileName, &data)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `parseJSONFile()` calling: %w", err)
	}

	memory, err := memorystorage.NewFromData(data)
	if err != nil {
		return nil, err
	}

	return &JSONDB{
		MemoryStorage: memory,
		fileName:      fileName,
	}, nil
}

// Close writes the current state to the file.
func (db *JSONDB) Close() error {
	return writeToJSONFile(db.fileName, db.MemoryStorage.Data())
}
