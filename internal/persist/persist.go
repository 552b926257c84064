// Package persist saves and restores the configuration part of the
// operating state across restarts.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sweeney/fridge-controller/internal/logic"
)

// Snapshot is the on-disk representation. Pointer fields distinguish
// "missing" from zero values so missing fields keep their defaults.
type Snapshot struct {
	TargetTemperature *float64 `json:"target_temperature,omitempty"`
	DefrostThreshold  *float64 `json:"defrost_threshold_temperature,omitempty"`
	DefrostType       *string  `json:"defrost_type,omitempty"`
	Status            *string  `json:"status,omitempty"`
	AutoMode          *bool    `json:"auto_mode,omitempty"`
	Timestamp         int64    `json:"timestamp"`
}

// FromState builds a snapshot of the persisted fields of st.
func FromState(st logic.OperatingState, now time.Time) Snapshot {
	target := st.TargetTemperature
	threshold := st.DefrostThreshold
	defrostType := string(st.DefrostType)
	status := string(st.Status)
	auto := st.Mode != logic.ModeManual
	return Snapshot{
		TargetTemperature: &target,
		DefrostThreshold:  &threshold,
		DefrostType:       &defrostType,
		Status:            &status,
		AutoMode:          &auto,
		Timestamp:         now.Unix(),
	}
}

// Merge copies present, valid fields into st. It returns the first field
// that was present but invalid, after merging every valid one.
func (s Snapshot) Merge(st *logic.OperatingState) error {
	var errs []error
	if s.TargetTemperature != nil {
		st.TargetTemperature = *s.TargetTemperature
	}
	if s.DefrostThreshold != nil {
		st.DefrostThreshold = *s.DefrostThreshold
	}
	if s.DefrostType != nil {
		dt, err := logic.ParseDefrostType(*s.DefrostType)
		if err != nil {
			errs = append(errs, fmt.Errorf("defrost_type %q: %w", *s.DefrostType, err))
		} else {
			st.DefrostType = dt
		}
	}
	if s.Status != nil {
		if status, ok := logic.ParseStatus(*s.Status); ok {
			st.Status = status
		} else {
			errs = append(errs, fmt.Errorf("unknown status %q", *s.Status))
		}
	}
	if s.AutoMode != nil {
		if *s.AutoMode {
			st.Mode = logic.ModeAuto
		} else {
			st.Mode = logic.ModeManual
		}
	}
	return errors.Join(errs...)
}

// FileStore keeps the snapshot in a single JSON file.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string, now func() time.Time) *FileStore {
	if now == nil {
		now = time.Now
	}
	return &FileStore{path: path, now: now}
}

// Path returns the snapshot file path.
func (f *FileStore) Path() string {
	return f.path
}

// Save writes the snapshot atomically: temp file in the same directory,
// fsync, then rename over the previous snapshot.
func (f *FileStore) Save(st logic.OperatingState) error {
	data, err := json.MarshalIndent(FromState(st, f.now()), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Restore merges the stored snapshot into defaults. Runtime fields (fault,
// relays) always come from defaults. A missing file returns found=false and
// no error; an unreadable or corrupt file returns defaults and an error. A
// field of the wrong JSON type keeps its default while the valid fields are
// still merged, and the error is returned with found=true.
func (f *FileStore) Restore(defaults logic.OperatingState) (logic.OperatingState, bool, error) {
	st := defaults.Clone()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, false, nil
	}
	if err != nil {
		return st, false, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return st, false, fmt.Errorf("decode snapshot: %w", err)
		}
		// The decoder skips a mistyped field and still fills the rest.
		return st, true, errors.Join(fmt.Errorf("decode snapshot: %w", err), snap.Merge(&st))
	}
	if err := snap.Merge(&st); err != nil {
		return st, true, fmt.Errorf("snapshot: %w", err)
	}
	return st, true, nil
}
