package attendance

import "errors"

// Status is the attendance state of a student for one day.
type Status string

const (
	StatusPending Status = "pending"
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

var (
	ErrAlreadyPresent = errors.New("student already marked present")
	ErrDayClosed      = errors.New("attendance already closed for student")
	ErrNoRecord       = errors.New("no attendance record")
)

// Record is one student's attendance for one calendar day.
//
// NotificationSent is true exactly when Status is not pending, and Time is
// set exactly when Status is present.
type Record struct {
	StudentID        string  `json:"studentId"`
	Date             string  `json:"date"`
	Time             *string `json:"time"`
	Status           Status  `json:"status"`
	NotificationSent bool    `json:"notificationSent"`
	GeneratedMessage *string `json:"generatedMessage"`
}

// NewRecord returns the initial pending record for a student and day.
func NewRecord(studentID, date string) Record {
	return Record{StudentID: studentID, Date: date, Status: StatusPending}
}

// ApplyScan moves a pending record to present at the observed time. The
// generated message is left empty until composition settles. Present and
// absent records are not touched.
func ApplyScan(r *Record, observedTime string) error {
	switch r.Status {
	case StatusPresent:
		return ErrAlreadyPresent
	case StatusAbsent:
		return ErrDayClosed
	}
	t := observedTime
	r.Status = StatusPresent
	r.Time = &t
	r.NotificationSent = true
	r.GeneratedMessage = nil
	return nil
}

// ApplyDayClose moves a pending record to absent and reports whether it did.
func ApplyDayClose(r *Record) bool {
	if r.Status != StatusPending {
		return false
	}
	r.Status = StatusAbsent
	r.Time = nil
	r.NotificationSent = true
	r.GeneratedMessage = nil
	return true
}

// SetMessage stores the composed notification on a record that is still in
// the status the message was composed for. Pending records carry no message.
func SetMessage(r *Record, status Status, msg string) bool {
	if status == StatusPending || r.Status != status {
		return false
	}
	m := msg
	r.GeneratedMessage = &m
	return true
}

// Reset restores the initial pending state.
func Reset(r *Record) {
	*r = NewRecord(r.StudentID, r.Date)
}

// Consistent reports whether the record satisfies the status invariants.
func (r Record) Consistent() bool {
	if r.NotificationSent != (r.Status != StatusPending) {
		return false
	}
	return (r.Time != nil) == (r.Status == StatusPresent)
}

// Message returns the generated message or "".
func (r Record) Message() string {
	if r.GeneratedMessage == nil {
		return ""
	}
	return *r.GeneratedMessage
}
