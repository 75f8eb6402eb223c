package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"tranchepool/native/safe"
	"tranchepool/native/tranche"
	"tranchepool/storage"
)

var (
	keyLedger   = []byte("poolsafe/ledger")
	keyTranches = []byte("pool/tranches")
	keyYield    = []byte("tranches/yield")
)

// Store persists the accounting core's state as JSON records in a key-value
// database. big.Int values serialize as exact decimal numbers, so the data
// model's integer invariants survive round trips without drift.
//
// A single mutex serializes read-modify-write sequences so the gateway's
// read path stays consistent with the daemon's writer.
type Store struct {
	mu sync.RWMutex
	db storage.Database
}

// NewStore wraps the supplied database.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

// GetLedger implements safe.LedgerState.
func (s *Store) GetLedger() (*safe.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ledger := &safe.Ledger{}
	ok, err := s.load(keyLedger, ledger)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return ledger, nil
}

// PutLedger implements safe.LedgerState.
func (s *Store) PutLedger(ledger *safe.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ledger == nil {
		return errors.New("state: nil ledger")
	}
	return s.save(keyLedger, ledger)
}

type trancheRecord struct {
	SeniorAssets *big.Int `json:"seniorAssets"`
	JuniorAssets *big.Int `json:"juniorAssets"`
	SeniorLoss   *big.Int `json:"seniorLoss"`
	JuniorLoss   *big.Int `json:"juniorLoss"`
}

// GetTranches implements pool.TrancheState. A missing record reports zeroed
// vectors so a fresh pool starts empty.
func (s *Store) GetTranches() (tranche.Assets, tranche.Losses, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record := &trancheRecord{}
	ok, err := s.load(keyTranches, record)
	if err != nil {
		return tranche.Assets{}, tranche.Losses{}, err
	}
	if !ok {
		return tranche.NewAssets(nil, nil), tranche.NewLosses(nil, nil), nil
	}
	assets := tranche.NewAssets(record.SeniorAssets, record.JuniorAssets)
	losses := tranche.NewLosses(record.SeniorLoss, record.JuniorLoss)
	return assets, losses, nil
}

// PutTranches implements pool.TrancheState.
func (s *Store) PutTranches(assets tranche.Assets, losses tranche.Losses) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	normalizedAssets := assets.Clone()
	normalizedLosses := losses.Clone()
	record := &trancheRecord{
		SeniorAssets: normalizedAssets[tranche.Senior],
		JuniorAssets: normalizedAssets[tranche.Junior],
		SeniorLoss:   normalizedLosses[tranche.Senior],
		JuniorLoss:   normalizedLosses[tranche.Junior],
	}
	return s.save(keyTranches, record)
}

// GetYieldTracker implements tranche.YieldState.
func (s *Store) GetYieldTracker() (*tranche.YieldTracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tracker := &tranche.YieldTracker{}
	ok, err := s.load(keyYield, tracker)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return tracker, nil
}

// PutYieldTracker implements tranche.YieldState.
func (s *Store) PutYieldTracker(tracker *tranche.YieldTracker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tracker == nil {
		return errors.New("state: nil yield tracker")
	}
	return s.save(keyYield, tracker)
}

func (s *Store) load(key []byte, out any) (bool, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) save(key []byte, in any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return s.db.Put(key, raw)
}
