package entrance

import (
	"context"
	"fmt"
	"log"
	"strings"

	"eduscan/internal/attendance"
	"eduscan/internal/directory"
	"eduscan/internal/notify"
)

// Students lists the directory in enrollment order.
func (c *Controller) Students(ctx context.Context) ([]directory.Student, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dir, _, err := c.repo.LoadDirectory(ctx)
	if err != nil {
		return nil, err
	}
	return dir.Students(), nil
}

// Student returns one directory entry.
func (c *Controller) Student(ctx context.Context, id string) (directory.Student, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dir, _, err := c.repo.LoadDirectory(ctx)
	if err != nil {
		return directory.Student{}, err
	}
	s := dir.Lookup(id)
	if s == nil {
		return directory.Student{}, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
	}
	return *s, nil
}

// Enroll adds a student and gives them a pending record for today.
func (c *Controller) Enroll(ctx context.Context, s directory.Student) (directory.Student, error) {
	c.mu.Lock()
	dir, ledger, err := c.loadLocked(ctx)
	if err != nil {
		c.mu.Unlock()
		return directory.Student{}, err
	}
	if err := dir.Enroll(s); err != nil {
		c.mu.Unlock()
		return directory.Student{}, err
	}
	saved := *dir.Lookup(strings.TrimSpace(s.ID))
	if err := c.repo.SaveDirectory(ctx, dir); err != nil {
		c.mu.Unlock()
		return directory.Student{}, err
	}
	if ledger.Add(saved.ID) {
		if err := c.repo.SaveLedger(ctx, ledger); err != nil {
			c.mu.Unlock()
			return directory.Student{}, err
		}
	}
	date := ledger.Date
	c.mu.Unlock()

	c.publish(Event{Type: EventEnrolled, Date: date, StudentID: saved.ID})
	return saved, nil
}

// Remove deletes a student and their records from every stored day.
func (c *Controller) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	dir, ledger, err := c.loadLocked(ctx)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if !dir.Remove(id) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStudentNotFound, id)
	}
	if err := c.repo.SaveDirectory(ctx, dir); err != nil {
		c.mu.Unlock()
		return err
	}
	if ledger.Remove(id) {
		if err := c.repo.SaveLedger(ctx, ledger); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	if err := c.repo.RemoveStudent(ctx, id, ledger.Date); err != nil {
		c.mu.Unlock()
		return err
	}
	date := ledger.Date
	c.mu.Unlock()

	log.Printf("entrance: removed student %s", id)
	c.publish(Event{Type: EventRemoved, Date: date, StudentID: id})
	return nil
}

// Entry is a ledger record joined with its student.
type Entry struct {
	attendance.Record
	Student directory.Student `json:"student"`
}

// LedgerView is one day's records plus counters.
type LedgerView struct {
	Date    string            `json:"date"`
	Entries []Entry           `json:"entries"`
	Counts  attendance.Counts `json:"counts"`
}

// Ledger returns the records for date, or today when date is empty.
func (c *Controller) Ledger(ctx context.Context, date string) (LedgerView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir, today, err := c.loadLocked(ctx)
	if err != nil {
		return LedgerView{}, err
	}
	l := today
	if date != "" && date != today.Date {
		if l, err = c.ledgerLocked(ctx, date); err != nil {
			return LedgerView{}, err
		}
	}
	return view(dir, l, l.Records()), nil
}

// Reports lists today's records that carry a notification.
func (c *Controller) Reports(ctx context.Context) (LedgerView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dir, l, err := c.loadLocked(ctx)
	if err != nil {
		return LedgerView{}, err
	}
	return view(dir, l, l.Notified()), nil
}

// Dates lists every stored day.
func (c *Controller) Dates(ctx context.Context) ([]string, error) {
	return c.repo.Dates(ctx)
}

// Purge deletes the stored ledger of a past day.
func (c *Controller) Purge(ctx context.Context, date string) error {
	if date == c.Today() {
		return ErrPurgeToday
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.ledgerLocked(ctx, date); err != nil {
		return err
	}
	if err := c.repo.DeleteLedger(ctx, date); err != nil {
		return err
	}
	log.Printf("entrance: purged ledger %s", date)
	return nil
}

func view(dir *directory.Directory, l *attendance.Ledger, recs []attendance.Record) LedgerView {
	v := LedgerView{Date: l.Date, Entries: make([]Entry, 0, len(recs)), Counts: l.Counts()}
	for _, r := range recs {
		e := Entry{Record: r, Student: directory.Student{ID: r.StudentID, Name: r.StudentID}}
		if s := dir.Lookup(r.StudentID); s != nil {
			e.Student = *s
		}
		v.Entries = append(v.Entries, e)
	}
	return v
}

// Resend hands today's stored message for a student to delivery again.
func (c *Controller) Resend(ctx context.Context, id string) (*notify.Delivery, error) {
	c.mu.Lock()
	dir, ledger, err := c.loadLocked(ctx)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	s := dir.Lookup(id)
	rec := ledger.Get(id)
	if s == nil || rec == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
	}
	if rec.Status == attendance.StatusPending || rec.Message() == "" {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrStillPending, id)
	}
	msg, contact := rec.Message(), s.GuardianContact
	c.mu.Unlock()

	return c.disp.Deliver(ctx, id, contact, msg)
}
