package entrance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"eduscan/internal/attendance"
	"eduscan/internal/dedup"
	"eduscan/internal/directory"
	"eduscan/internal/notify"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrStillPending    = errors.New("record has no notification yet")
	ErrPurgeToday      = errors.New("today's ledger cannot be purged, reset it instead")
)

// DefaultReopenDelay is how long the scanner stays closed after a check-in.
const DefaultReopenDelay = 2 * time.Second

// Config tunes a Controller.
type Config struct {
	Cooldown    time.Duration
	ReopenDelay time.Duration
	Location    *time.Location
	// DeliverOnScan hands present notifications to delivery.
	DeliverOnScan bool
	// DayCloseDeliver hands absence notifications to delivery during day-close.
	DayCloseDeliver bool
	// Seed populates an empty store on first start.
	Seed []directory.Student
	Now  func() time.Time
}

// Controller applies scans and day operations to the directory and day
// ledgers held in the store. The store may be shared with other processes,
// so every operation reads the current documents and writes back only after
// its change succeeded; nothing is cached between calls. The mutex is never
// held while a message is composed.
type Controller struct {
	repo  *attendance.Repository
	disp  *notify.Dispatcher
	guard *dedup.Guard
	cfg   Config

	mu         sync.Mutex
	processing bool
	reopenAt   time.Time

	subsMu  sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New seeds the directory when the store is empty and makes sure today's
// ledger exists.
func New(ctx context.Context, repo *attendance.Repository, disp *notify.Dispatcher, cfg Config) (*Controller, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.ReopenDelay < 0 {
		cfg.ReopenDelay = 0
	}

	dir, found, err := repo.LoadDirectory(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		dir = directory.New(cfg.Seed...)
		if err := repo.SaveDirectory(ctx, dir); err != nil {
			return nil, err
		}
	}

	c := &Controller{
		repo:  repo,
		disp:  disp,
		guard: dedup.NewGuard(cfg.Cooldown),
		cfg:   cfg,
		subs:  make(map[int]func(Event)),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.todayLocked(ctx, dir); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) now() time.Time {
	return c.cfg.Now().In(c.cfg.Location)
}

// Today returns the current calendar-day key.
func (c *Controller) Today() string {
	return attendance.DateKey(c.now())
}

// loadLocked reads the directory and today's ledger.
func (c *Controller) loadLocked(ctx context.Context) (*directory.Directory, *attendance.Ledger, error) {
	dir, _, err := c.repo.LoadDirectory(ctx)
	if err != nil {
		return nil, nil, err
	}
	l, err := c.todayLocked(ctx, dir)
	if err != nil {
		return nil, nil, err
	}
	return dir, l, nil
}

// todayLocked returns the stored ledger for the current day, creating it on
// day rollover. The ledger is reconciled with dir and saved when that
// changed it.
func (c *Controller) todayLocked(ctx context.Context, dir *directory.Directory) (*attendance.Ledger, error) {
	date := c.Today()
	l, err := c.repo.LoadLedger(ctx, date)
	if err != nil {
		return nil, err
	}
	dirty := false
	if l == nil {
		l = attendance.NewLedger(date, studentIDs(dir))
		dirty = true
	} else if l.Sync(studentIDs(dir)) {
		dirty = true
	}
	if dirty {
		if err := c.repo.SaveLedger(ctx, l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// ledgerLocked loads the stored ledger for date.
func (c *Controller) ledgerLocked(ctx context.Context, date string) (*attendance.Ledger, error) {
	l, err := c.repo.LoadLedger(ctx, date)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w for %s", attendance.ErrNoRecord, date)
	}
	return l, nil
}

func studentIDs(dir *directory.Directory) []string {
	students := dir.Students()
	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	return ids
}

func copyRecord(r *attendance.Record) *attendance.Record {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

func request(s directory.Student, kind notify.Kind, t string) notify.Request {
	return notify.Request{StudentName: s.Name, GuardianName: s.GuardianName, Kind: kind, Time: t}
}
