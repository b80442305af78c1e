package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"termcal/internal/events"
	"termcal/internal/log"
)

// JSONStore keeps one <id>.json file per event in a directory
type JSONStore struct {
	dir    string
	logger zerolog.Logger
}

// NewJSON creates the directory if needed
func NewJSON(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &JSONStore{
		dir:    dir,
		logger: log.WithComponent("store.json"),
	}, nil
}

func (s *JSONStore) eventPath(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

// Load reads every event file. Files that cannot be read or decoded are skipped.
func (s *JSONStore) Load(ctx context.Context) ([]events.Event, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []events.Event
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unreadable event file")
			continue
		}

		var e events.Event
		if err := json.Unmarshal(data, &e); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping malformed event file")
			continue
		}
		if e.ID == uuid.Nil {
			continue
		}
		out = append(out, e)
	}

	return out, nil
}

// Put writes an event atomically
func (s *JSONStore) Put(_ context.Context, e events.Event) error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("event has no ID")
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(s.eventPath(e.ID), data, 0600)
}

// Delete removes an event file; a missing file is not an error
func (s *JSONStore) Delete(_ context.Context, id uuid.UUID) error {
	err := os.Remove(s.eventPath(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *JSONStore) Path() string {
	return s.dir
}

func (s *JSONStore) Close() error {
	return nil
}
