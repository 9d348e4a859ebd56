package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"eduscan/internal/directory"
	"eduscan/internal/store"
)

const (
	// DirectoryKey is bumped when seed data changes shape incompatibly.
	DirectoryKey    = "students_v2"
	ledgerNamespace = "attendance"
)

// LedgerKey returns the storage key of a day ledger.
func LedgerKey(date string) string {
	return ledgerNamespace + "_" + date
}

// Repository persists the directory and day ledgers as JSON documents in a KV store.
type Repository struct {
	kv store.KV
}

// NewRepository creates a repo.
func NewRepository(kv store.KV) *Repository {
	return &Repository{kv: kv}
}

// LoadDirectory reads the directory. found is false when nothing was stored yet.
func (r *Repository) LoadDirectory(ctx context.Context) (dir *directory.Directory, found bool, err error) {
	raw, err := r.kv.Get(ctx, DirectoryKey)
	if errors.Is(err, store.ErrNotFound) {
		return directory.New(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load directory: %w", err)
	}
	dir = directory.New()
	if err := json.Unmarshal(raw, dir); err != nil {
		return nil, false, fmt.Errorf("decode directory: %w", err)
	}
	return dir, true, nil
}

// SaveDirectory writes the full directory.
func (r *Repository) SaveDirectory(ctx context.Context, dir *directory.Directory) error {
	raw, err := json.Marshal(dir)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, DirectoryKey, raw); err != nil {
		return fmt.Errorf("save directory: %w", err)
	}
	return nil
}

// LoadLedger reads a day ledger; it returns nil, nil when none was stored.
func (r *Repository) LoadLedger(ctx context.Context, date string) (*Ledger, error) {
	raw, err := r.kv.Get(ctx, LedgerKey(date))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", date, err)
	}
	l := &Ledger{Date: date}
	if err := json.Unmarshal(raw, l); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", date, err)
	}
	return l, nil
}

// SaveLedger writes a full day ledger.
func (r *Repository) SaveLedger(ctx context.Context, l *Ledger) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, LedgerKey(l.Date), raw); err != nil {
		return fmt.Errorf("save ledger %s: %w", l.Date, err)
	}
	return nil
}

// DeleteLedger drops a stored day ledger. Deleting a missing day is not an error.
func (r *Repository) DeleteLedger(ctx context.Context, date string) error {
	if err := r.kv.Delete(ctx, LedgerKey(date)); err != nil {
		return fmt.Errorf("delete ledger %s: %w", date, err)
	}
	return nil
}

// Dates lists every day that has a stored ledger, oldest first.
func (r *Repository) Dates(ctx context.Context) ([]string, error) {
	prefix := ledgerNamespace + "_"
	keys, err := r.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	dates := make([]string, 0, len(keys))
	for _, k := range keys {
		dates = append(dates, strings.TrimPrefix(k, prefix))
	}
	return dates, nil
}

// RemoveStudent drops a student's record from every stored ledger except
// skip, which the caller persists itself.
func (r *Repository) RemoveStudent(ctx context.Context, studentID, skip string) error {
	dates, err := r.Dates(ctx)
	if err != nil {
		return err
	}
	for _, date := range dates {
		if date == skip {
			continue
		}
		l, err := r.LoadLedger(ctx, date)
		if err != nil {
			return err
		}
		if l == nil || !l.Remove(studentID) {
			continue
		}
		if err := r.SaveLedger(ctx, l); err != nil {
			return err
		}
	}
	return nil
}
