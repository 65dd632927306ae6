package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"tmsearch/trademark"
)

var outcomesBucket = []byte("outcomes")

// HistoryStore persists completed search outcomes in a local bbolt file,
// newest-first retrievable. Keys sort chronologically.
type HistoryStore struct {
	DBPath string
	db     *bolt.DB
	mu     sync.RWMutex
}

func NewHistoryStore(dbPath string) *HistoryStore {
	return &HistoryStore{DBPath: dbPath}
}

// Init opens the database and ensures the bucket exists.
func (s *HistoryStore) Init() error {
	dbDir := filepath.Dir(s.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for history db: %w", err)
	}

	db, err := bolt.Open(s.DBPath, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(outcomesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	s.db = db
	return nil
}

func (s *HistoryStore) SaveOutcome(outcome *trademark.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("history store not initialized")
	}

	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	key := []byte(outcome.CompletedAt.UTC().Format(time.RFC3339Nano) + ":" + outcome.ID)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(outcomesBucket).Put(key, data)
	})
}

// ListOutcomes returns up to limit outcomes, most recent first.
func (s *HistoryStore) ListOutcomes(limit int) ([]trademark.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, fmt.Errorf("history store not initialized")
	}

	var outcomes []trademark.Outcome
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(outcomesBucket).Cursor()
		for k, v := c.Last(); k != nil && len(outcomes) < limit; k, v = c.Prev() {
			var outcome trademark.Outcome
			if err := json.Unmarshal(v, &outcome); err != nil {
				continue
			}
			outcomes = append(outcomes, outcome)
		}
		return nil
	})
	return outcomes, err
}

// Close releases the database. Safe to call more than once.
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
