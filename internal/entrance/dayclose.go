package entrance

import (
	"context"
	"errors"
	"log"

	"eduscan/internal/attendance"
	"eduscan/internal/directory"
	"eduscan/internal/metrics"
	"eduscan/internal/notify"
)

// DayCloseResult summarizes a day-close run.
type DayCloseResult struct {
	Date          string                `json:"date"`
	Closed        int                   `json:"closed"`
	Notifications []notify.Notification `json:"notifications"`
	Counts        attendance.Counts     `json:"counts"`
}

// CloseDay marks every student still pending today as absent, composing
// one absence message per record. Records are handled one at a time and
// each is persisted as soon as it is settled; a record that stopped being
// pending while its message was composed is left alone. With nothing
// pending it returns immediately without composing anything.
func (c *Controller) CloseDay(ctx context.Context) (DayCloseResult, error) {
	c.mu.Lock()
	dir, ledger, err := c.loadLocked(ctx)
	if err != nil {
		c.mu.Unlock()
		return DayCloseResult{}, err
	}
	date := ledger.Date
	var pending []directory.Student
	for _, id := range ledger.PendingIDs() {
		if s := dir.Lookup(id); s != nil {
			pending = append(pending, *s)
		} else {
			pending = append(pending, directory.Student{ID: id, Name: id})
		}
	}
	c.mu.Unlock()

	res := DayCloseResult{Date: date, Notifications: []notify.Notification{}}
	for _, s := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		n := c.disp.Compose(ctx, s.ID, request(s, notify.KindAbsent, ""))
		rec, err := c.markAbsent(ctx, date, s.ID, n.Message)
		if err != nil {
			return res, err
		}
		if rec == nil {
			continue
		}
		res.Closed++
		metrics.DayClosedRecords.Inc()

		if c.cfg.DayCloseDeliver {
			del, err := c.disp.Deliver(ctx, s.ID, s.GuardianContact, n.Message)
			if errors.Is(err, notify.ErrNoContact) {
				log.Printf("entrance: no contact for absent student %s", s.ID)
			}
			n.Delivery = del
		}
		res.Notifications = append(res.Notifications, n)
		c.publish(Event{Type: EventMarkedAbsent, Date: date, StudentID: s.ID, Record: rec, Notification: &n})
	}

	c.mu.Lock()
	if ledger, err := c.ledgerLocked(ctx, date); err == nil {
		res.Counts = ledger.Counts()
	}
	c.mu.Unlock()

	if res.Closed > 0 {
		log.Printf("entrance: day %s closed, %d marked absent", date, res.Closed)
		counts := res.Counts
		c.publish(Event{Type: EventDayClosed, Date: date, Counts: &counts})
	}
	return res, nil
}

// markAbsent applies the day-close transition and stores msg in one step.
// It returns nil when the record is no longer pending.
func (c *Controller) markAbsent(ctx context.Context, date, studentID, msg string) (*attendance.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ledger, err := c.ledgerLocked(ctx, date)
	if err != nil {
		return nil, err
	}
	rec := ledger.Get(studentID)
	if rec == nil || !attendance.ApplyDayClose(rec) {
		return nil, nil
	}
	attendance.SetMessage(rec, attendance.StatusAbsent, msg)
	if err := c.repo.SaveLedger(ctx, ledger); err != nil {
		return nil, err
	}
	return copyRecord(rec), nil
}

// ResetDay restores every record of today to pending and forgets recent
// scans so students can check in again.
func (c *Controller) ResetDay(ctx context.Context) (attendance.Counts, error) {
	c.mu.Lock()
	_, ledger, err := c.loadLocked(ctx)
	if err != nil {
		c.mu.Unlock()
		return attendance.Counts{}, err
	}
	ledger.Reset()
	if err := c.repo.SaveLedger(ctx, ledger); err != nil {
		c.mu.Unlock()
		return attendance.Counts{}, err
	}
	c.guard.Reset()
	c.reopenAt = c.cfg.Now()
	counts, date := ledger.Counts(), ledger.Date
	c.mu.Unlock()

	log.Printf("entrance: day %s reset", date)
	c.publish(Event{Type: EventDayReset, Date: date, Counts: &counts})
	return counts, nil
}
