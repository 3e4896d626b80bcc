// Package localdb persists the indexing checkpoint: a single wall-time
// watermark below which all candidate accounts have been processed.
package localdb

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

type LocalDB struct {
	path string
}

type indexData struct {
	IndexSecond int64 `json:"index_second"`
}

func New(path string) *LocalDB {
	return &LocalDB{path: path}
}

// Read returns the persisted checkpoint second. A missing file is the first
// run and yields 0.
func (db *LocalDB) Read() (int64, error) {
	buf, err := os.ReadFile(db.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var data indexData
	if err := json.Unmarshal(buf, &data); err != nil {
		return 0, err
	}
	return data.IndexSecond, nil
}

// Write persists the checkpoint second, replacing the file atomically so a
// crash mid-write cannot leave a corrupt watermark.
func (db *LocalDB) Write(second int64) error {
	buf, err := json.Marshal(indexData{IndexSecond: second})
	if err != nil {
		return err
	}
	tmp := db.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(db.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, db.path)
}
