// Package file implements the storage contracts over local files: a single
// gob-encoded blob for reference embeddings, CSV for the roster and the
// attendance log. Column names follow the legacy capture format
// (user_id, register_date, enter_or_exit, ...).
package file

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/facegate/facegate/internal/database"
)

const (
	facesFile  = "faces.gob"
	rosterFile = "roster.csv"
)

var rosterHeader = []string{"user_id", "label", "register_date", "register_time"}

// storeBlob is the serialized embedding store. The whole blob is rewritten on
// each mutation (load-modify-store).
type storeBlob struct {
	Records []storeRecord
}

type storeRecord struct {
	Identity  string
	Vector    []float32
	Strategy  string
	Dim       int
	CreatedAt time.Time
}

// Store is a file-backed database.IdentityStore. State is loaded once and
// served from memory; Refresh re-reads the files.
type Store struct {
	facesPath  string
	rosterPath string

	mu         sync.RWMutex
	embeddings []database.StoredEmbedding
	roster     []database.RosterEntry
}

// NewStore opens (and bootstraps, if absent) the store files under dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &Store{
		facesPath:  filepath.Join(dir, facesFile),
		rosterPath: filepath.Join(dir, rosterFile),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	embeddings, err := loadBlob(s.facesPath)
	if err != nil {
		return err
	}
	roster, err := loadRoster(s.rosterPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.embeddings = embeddings
	s.roster = roster
	s.mu.Unlock()
	return nil
}

func loadBlob(path string) ([]database.StoredEmbedding, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening embedding store: %w", err)
	}
	defer f.Close()

	var blob storeBlob
	if err := gob.NewDecoder(f).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decoding embedding store: %w", err)
	}

	embeddings := make([]database.StoredEmbedding, len(blob.Records))
	for i, r := range blob.Records {
		embeddings[i] = database.StoredEmbedding{
			Identity:  database.Identity(r.Identity),
			Vector:    r.Vector,
			Strategy:  r.Strategy,
			Dim:       r.Dim,
			CreatedAt: r.CreatedAt,
		}
	}
	return embeddings, nil
}

func loadRoster(path string) ([]database.RosterEntry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		// Bootstrap with a header row on first use.
		return nil, writeCSVRow(path, rosterHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("opening roster: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	var roster []database.RosterEntry
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == rosterHeader[0] {
			continue
		}
		entry, ok := parseRosterRow(row)
		if !ok {
			// Roster rows are written by us only; a bad row is skipped the
			// same way bad log rows are.
			continue
		}
		roster = append(roster, entry)
	}
	return roster, nil
}

// parseRosterRow accepts both the 4-column format and the legacy 3-column
// format without a label.
func parseRosterRow(row []string) (database.RosterEntry, bool) {
	var id, label, date, clock string
	switch len(row) {
	case 4:
		id, label, date, clock = row[0], row[1], row[2], row[3]
	case 3:
		id, date, clock = row[0], row[1], row[2]
	default:
		return database.RosterEntry{}, false
	}
	if id == "" {
		return database.RosterEntry{}, false
	}

	ts, err := time.ParseInLocation(
		database.DateLayout+" "+database.TimeLayout, date+" "+clock, time.Local)
	if err != nil {
		return database.RosterEntry{}, false
	}
	return database.RosterEntry{
		Identity:     database.Identity(id),
		Label:        label,
		RegisteredAt: ts,
	}, true
}

func (s *Store) Embeddings(ctx context.Context) ([]database.StoredEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.StoredEmbedding, len(s.embeddings))
	copy(out, s.embeddings)
	return out, nil
}

func (s *Store) Roster(ctx context.Context) ([]database.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.RosterEntry, len(s.roster))
	copy(out, s.roster)
	return out, nil
}

func (s *Store) HasIdentity(ctx context.Context, id database.Identity) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.roster {
		if entry.Identity == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings), nil
}

// Enroll rewrites the embedding blob and appends the roster row. If the
// roster append fails the previous blob is restored, so the two files never
// disagree about who is enrolled.
func (s *Store) Enroll(ctx context.Context, emb database.StoredEmbedding, entry database.RosterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevBlob, err := os.ReadFile(s.facesPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading embedding store: %w", err)
	}
	hadBlob := err == nil

	records := make([]storeRecord, 0, len(s.embeddings)+1)
	for _, e := range s.embeddings {
		records = append(records, storeRecord{
			Identity:  string(e.Identity),
			Vector:    e.Vector,
			Strategy:  e.Strategy,
			Dim:       e.Dim,
			CreatedAt: e.CreatedAt,
		})
	}
	records = append(records, storeRecord{
		Identity:  string(emb.Identity),
		Vector:    emb.Vector,
		Strategy:  emb.Strategy,
		Dim:       emb.Dim,
		CreatedAt: emb.CreatedAt,
	})

	if err := writeBlob(s.facesPath, storeBlob{Records: records}); err != nil {
		return err
	}

	row := []string{
		string(entry.Identity),
		entry.Label,
		entry.RegisteredAt.Format(database.DateLayout),
		entry.RegisteredAt.Format(database.TimeLayout),
	}
	if err := writeCSVRow(s.rosterPath, row); err != nil {
		// Roll the blob back so no identity exists in one file only.
		if hadBlob {
			if restoreErr := os.WriteFile(s.facesPath, prevBlob, 0o644); restoreErr != nil {
				return fmt.Errorf("appending roster row: %v (blob rollback also failed: %w)", err, restoreErr)
			}
		} else {
			os.Remove(s.facesPath)
		}
		return fmt.Errorf("appending roster row: %w", err)
	}

	s.embeddings = append(s.embeddings, emb)
	s.roster = append(s.roster, entry)
	return nil
}

func (s *Store) Refresh(ctx context.Context) error {
	return s.load()
}

// writeBlob writes the blob to a temp file and renames it into place so a
// crash mid-write never leaves a truncated store.
func writeBlob(path string, blob storeBlob) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), facesFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding embedding store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing embedding store: %w", err)
	}
	return nil
}

// writeCSVRow appends one CSV row with a single write syscall.
func writeCSVRow(path string, row []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	line, err := encodeCSVRow(row)
	if err != nil {
		return err
	}
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("appending to %s: %w", filepath.Base(path), err)
	}
	return nil
}

func encodeCSVRow(row []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(row); err != nil {
		return nil, fmt.Errorf("encoding csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encoding csv row: %w", err)
	}
	return buf.Bytes(), nil
}
