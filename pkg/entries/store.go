package entries

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/igorvan/omniscan/pkg/scanning"
)

const (
	// StorageKey - key holding the JSON encoded collection, newest first
	StorageKey = "omniscan_data"
	// ClearPrompt - question asked before the collection is erased
	ClearPrompt = "Are you sure you want to clear all scanned data?"
)

// KeyValueStore - persistent string storage
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Confirmer - asks the user a yes/no question
type Confirmer interface {
	Confirm(message string) bool
}

// Store - append-only scan collection kept under a single key
type Store struct {
	mtx sync.Mutex
	kv  KeyValueStore
}

// New - Store constructor
func New(kv KeyValueStore) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("cannot instantiate an entry Store, no key-value store provided")
	}
	return &Store{kv: kv}, nil
}

// Append - reads the whole collection, prepends the entry and writes it back
func (s *Store) Append(ctx context.Context, entry scanning.Entry) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	all, err := s.read(ctx)
	if err != nil {
		return err
	}
	all = append([]scanning.Entry{entry}, all...)

	b, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("cannot encode scanned entries: %w", err)
	}
	return s.kv.Set(ctx, StorageKey, string(b))
}

// ReadAll - returns the collection newest first, never nil
func (s *Store) ReadAll(ctx context.Context) ([]scanning.Entry, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.read(ctx)
}

// Clear - erases the collection once the confirmer agrees,
// returns whether anything was erased
func (s *Store) Clear(ctx context.Context, confirm Confirmer) (bool, error) {
	if confirm == nil || !confirm.Confirm(ClearPrompt) {
		return false, nil
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) read(ctx context.Context) ([]scanning.Entry, error) {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []scanning.Entry{}, nil
	}
	var all []scanning.Entry
	if err := json.Unmarshal([]byte(raw), &all); err != nil || all == nil {
		// unreadable content counts as an empty collection
		return []scanning.Entry{}, nil
	}
	return all, nil
}

// ConfirmFunc - adapts a plain function to Confirmer
type ConfirmFunc func(message string) bool

// Confirm - calls f
func (f ConfirmFunc) Confirm(message string) bool {
	return f(message)
}

// Always - confirmer used when the caller already asked the user
var Always = ConfirmFunc(func(string) bool { return true })
