package entrance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"eduscan/internal/attendance"
	"eduscan/internal/directory"
	"eduscan/internal/metrics"
	"eduscan/internal/notify"
	"eduscan/internal/payload"
)

// TimeLayout formats the observed check-in time.
const TimeLayout = "15:04"

// Outcome classifies what a scan did.
type Outcome string

const (
	OutcomePresent         Outcome = "present"
	OutcomeNotRecognized   Outcome = "not_recognized"
	OutcomeUnknownIdentity Outcome = "unknown_identity"
	OutcomeAlreadyPresent  Outcome = "already_present"
	OutcomeDayClosed       Outcome = "day_closed"
	OutcomeSuppressed      Outcome = "suppressed"
	OutcomeBusy            Outcome = "busy"
)

// Silent reports whether the outcome should produce no operator feedback.
func (o Outcome) Silent() bool {
	return o == OutcomeSuppressed || o == OutcomeBusy
}

// ScanResult is returned for every scan, including rejected ones.
type ScanResult struct {
	Outcome      Outcome              `json:"outcome"`
	Notice       string               `json:"notice,omitempty"`
	Format       payload.Format       `json:"format,omitempty"`
	Enrolled     bool                 `json:"enrolled,omitempty"`
	Student      *directory.Student   `json:"student,omitempty"`
	Record       *attendance.Record   `json:"record,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
	Counts       *attendance.Counts   `json:"counts,omitempty"`
}

const noticeInvalidIdentity = "Datos del código QR no válidos para registrar al alumno"

var notices = map[Outcome]string{
	OutcomePresent:         "Asistencia registrada",
	OutcomeNotRecognized:   "Código QR no reconocido",
	OutcomeUnknownIdentity: "Alumno no encontrado en el sistema",
	OutcomeAlreadyPresent:  "El alumno ya registró su asistencia hoy",
	OutcomeDayClosed:       "El alumno ya fue marcado como ausente hoy",
}

func finish(res ScanResult) ScanResult {
	if res.Notice == "" {
		res.Notice = notices[res.Outcome]
	}
	metrics.ScansTotal.WithLabelValues(string(res.Outcome)).Inc()
	return res
}

// Scan resolves a raw payload and applies the check-in. Only one scan is
// resolved at a time; scans arriving meanwhile, or before the reopen delay
// after a check-in has elapsed, are dropped with OutcomeBusy.
func (c *Controller) Scan(ctx context.Context, raw string) (ScanResult, error) {
	if !c.acquire() {
		return finish(ScanResult{Outcome: OutcomeBusy}), nil
	}
	checkedIn := false
	defer func() { c.release(checkedIn) }()

	id, format := payload.ParseWithFormat(raw)
	if id == nil {
		return finish(ScanResult{Outcome: OutcomeNotRecognized}), nil
	}
	metrics.PayloadFormats.WithLabelValues(string(format)).Inc()

	now := c.now()
	if !c.guard.ShouldAccept(id.ID, now) {
		return finish(ScanResult{Outcome: OutcomeSuppressed, Format: format}), nil
	}

	res, err := c.checkIn(ctx, id, now)
	if err != nil {
		// failed check-ins do not start a cooldown
		c.guard.Reset()
		return ScanResult{}, err
	}
	res.Format = format
	if res.Outcome != OutcomePresent {
		return finish(res), nil
	}
	checkedIn = true
	if res.Enrolled {
		c.publish(Event{Type: EventEnrolled, Date: res.Record.Date, StudentID: res.Student.ID})
	}
	c.publish(Event{Type: EventCheckedIn, Date: res.Record.Date, StudentID: res.Student.ID, Record: res.Record, Counts: res.Counts})

	student := *res.Student
	n := c.disp.Compose(ctx, student.ID, request(student, notify.KindPresent, *res.Record.Time))
	rec, err := c.storeMessage(ctx, res.Record.Date, student.ID, *res.Record.Time, n.Message)
	if err != nil {
		return ScanResult{}, err
	}
	if rec != nil {
		res.Record = rec
	}

	if c.cfg.DeliverOnScan {
		del, err := c.disp.Deliver(ctx, student.ID, student.GuardianContact, n.Message)
		n.Delivery = del
		if errors.Is(err, notify.ErrNoContact) {
			res.Notice = fmt.Sprintf("%s. Sin contacto del apoderado", notices[OutcomePresent])
		}
	}
	res.Notification = &n

	c.publish(Event{Type: EventComposed, Date: res.Record.Date, StudentID: student.ID, Record: res.Record, Notification: &n})
	return finish(res), nil
}

func (c *Controller) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.processing || c.cfg.Now().Before(c.reopenAt) {
		return false
	}
	c.processing = true
	return true
}

func (c *Controller) release(checkedIn bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processing = false
	if checkedIn {
		c.reopenAt = c.cfg.Now().Add(c.cfg.ReopenDelay)
	}
}

// checkIn looks up or auto-enrolls the student and applies the scan
// transition, persisting the result before any message is composed. The
// change is made on freshly loaded documents, so a failed save leaves no
// trace.
func (c *Controller) checkIn(ctx context.Context, id *payload.Identity, now time.Time) (ScanResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir, ledger, err := c.loadLocked(ctx)
	if err != nil {
		return ScanResult{}, err
	}

	res := ScanResult{}
	student := dir.Lookup(id.ID)
	if student == nil {
		if id.Name == "" {
			return ScanResult{Outcome: OutcomeUnknownIdentity}, nil
		}
		s := directory.FromIdentity(id.ID, id.Name, id.Grade, id.Guardian, id.Contact)
		if err := dir.Enroll(s); err != nil {
			log.Printf("entrance: cannot auto-enroll %q: %v", id.ID, err)
			return ScanResult{Outcome: OutcomeUnknownIdentity, Notice: noticeInvalidIdentity}, nil
		}
		if err := c.repo.SaveDirectory(ctx, dir); err != nil {
			return ScanResult{}, err
		}
		log.Printf("entrance: auto-enrolled %s (%s)", s.ID, s.Name)
		student = &s
		res.Enrolled = true
	}
	res.Student = student

	ledger.Add(student.ID)
	rec := ledger.Get(student.ID)

	switch err := attendance.ApplyScan(rec, now.Format(TimeLayout)); {
	case errors.Is(err, attendance.ErrAlreadyPresent):
		res.Outcome, res.Record = OutcomeAlreadyPresent, copyRecord(rec)
		return res, nil
	case errors.Is(err, attendance.ErrDayClosed):
		res.Outcome, res.Record = OutcomeDayClosed, copyRecord(rec)
		return res, nil
	case err != nil:
		return ScanResult{}, err
	}

	if err := c.repo.SaveLedger(ctx, ledger); err != nil {
		return ScanResult{}, err
	}
	counts := ledger.Counts()
	res.Outcome, res.Record, res.Counts = OutcomePresent, copyRecord(rec), &counts
	return res, nil
}

// storeMessage writes a composed arrival message back onto the stored record
// when it is still the check-in made at observed. It returns the updated
// record, or nil when the record is gone or changed in the meantime.
func (c *Controller) storeMessage(ctx context.Context, date, studentID, observed, msg string) (*attendance.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ledger, err := c.ledgerLocked(ctx, date)
	if errors.Is(err, attendance.ErrNoRecord) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := ledger.Get(studentID)
	if rec == nil || rec.Time == nil || *rec.Time != observed {
		return nil, nil
	}
	if !attendance.SetMessage(rec, attendance.StatusPresent, msg) {
		return nil, nil
	}
	if err := c.repo.SaveLedger(ctx, ledger); err != nil {
		return nil, err
	}
	return copyRecord(rec), nil
}
