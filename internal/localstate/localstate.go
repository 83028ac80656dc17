// Package localstate keeps the client's on-disk state: the refresh token and
// the last streak snapshot, so the app can detect a missed day boundary and
// show something while offline.
package localstate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/domain/streak"
	"gopkg.in/yaml.v3"
)

const fileMode = 0o600

// State is the content of the state file.
type State struct {
	APIURL       string           `yaml:"api_url,omitempty"`
	RefreshToken string           `yaml:"refresh_token,omitempty"`
	Snapshot     *streak.AppState `yaml:"snapshot,omitempty"`
	SavedAt      time.Time        `yaml:"saved_at,omitempty"`
}

// File is a State stored at one path. Methods are safe for concurrent use.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath is $XDG_CONFIG_HOME/streaky/state.yaml or its platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "streaky", "state.yaml"), nil
}

func (f *File) Path() string { return f.path }

// Load returns the stored state, or an empty one if the file does not exist.
func (f *File) Load() (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *File) load() (*State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	return &st, nil
}

// Save writes st atomically via a temp file in the same directory.
func (f *File) Save(st *State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(st)
}

func (f *File) save(st *State) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	st.SavedAt = time.Now().UTC()
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename state: %w", err)
	}
	return nil
}

// Update loads, applies fn and saves under one lock.
func (f *File) Update(fn func(st *State)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.load()
	if err != nil {
		return err
	}
	fn(st)
	return f.save(st)
}

// SetRefreshToken stores token; "" forgets the login and the cached snapshot.
func (f *File) SetRefreshToken(token string) error {
	return f.Update(func(st *State) {
		st.RefreshToken = token
		if token == "" {
			st.Snapshot = nil
		}
	})
}

// SetSnapshot caches the latest state.
func (f *File) SetSnapshot(s *streak.AppState) error {
	return f.Update(func(st *State) {
		st.Snapshot = s
	})
}
