package attendance

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar-day key format.
const DateLayout = "2006-01-02"

// DateKey formats t as a calendar-day key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Counts summarizes a ledger.
type Counts struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Pending int `json:"pending"`
}

// Ledger holds every attendance record of one calendar day in student
// enrollment order. It is not safe for concurrent use.
type Ledger struct {
	Date    string
	records []Record
	index   map[string]int
}

// NewLedger creates a day ledger with a pending record per student id.
func NewLedger(date string, studentIDs []string) *Ledger {
	l := &Ledger{Date: date, index: make(map[string]int, len(studentIDs))}
	for _, id := range studentIDs {
		l.Add(id)
	}
	return l
}

// Get returns the live record for a student, or nil. The pointer is only
// valid until the next Add or Remove.
func (l *Ledger) Get(studentID string) *Record {
	i, ok := l.index[studentID]
	if !ok {
		return nil
	}
	return &l.records[i]
}

// Add appends a pending record for the student unless one exists.
func (l *Ledger) Add(studentID string) bool {
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if _, ok := l.index[studentID]; ok {
		return false
	}
	l.index[studentID] = len(l.records)
	l.records = append(l.records, NewRecord(studentID, l.Date))
	return true
}

// Remove drops the student's record and reports whether it existed.
func (l *Ledger) Remove(studentID string) bool {
	i, ok := l.index[studentID]
	if !ok {
		return false
	}
	l.records = append(l.records[:i], l.records[i+1:]...)
	l.reindex()
	return true
}

// Sync makes the ledger hold exactly one record per given student id:
// missing students get a pending record, records for unknown ids are
// dropped. It reports whether anything changed.
func (l *Ledger) Sync(studentIDs []string) bool {
	want := make(map[string]bool, len(studentIDs))
	changed := false
	for _, id := range studentIDs {
		want[id] = true
		if l.Add(id) {
			changed = true
		}
	}
	kept := l.records[:0]
	for _, r := range l.records {
		if want[r.StudentID] {
			kept = append(kept, r)
		} else {
			changed = true
		}
	}
	l.records = kept
	l.reindex()
	return changed
}

// Reset puts every record back to pending.
func (l *Ledger) Reset() {
	for i := range l.records {
		Reset(&l.records[i])
	}
}

// Records returns a copy of the records in ledger order.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// PendingIDs returns the ids of pending records in ledger order.
func (l *Ledger) PendingIDs() []string {
	var ids []string
	for _, r := range l.records {
		if r.Status == StatusPending {
			ids = append(ids, r.StudentID)
		}
	}
	return ids
}

// Notified returns the records whose notification has been composed.
func (l *Ledger) Notified() []Record {
	var out []Record
	for _, r := range l.records {
		if r.NotificationSent {
			out = append(out, r)
		}
	}
	return out
}

// Counts tallies records by status.
func (l *Ledger) Counts() Counts {
	c := Counts{Total: len(l.records)}
	for _, r := range l.records {
		switch r.Status {
		case StatusPresent:
			c.Present++
		case StatusAbsent:
			c.Absent++
		default:
			c.Pending++
		}
	}
	return c
}

func (l *Ledger) reindex() {
	l.index = make(map[string]int, len(l.records))
	for i, r := range l.records {
		l.index[r.StudentID] = i
	}
}

// MarshalJSON encodes the ledger as a JSON array of records.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	if l.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.records)
}

// UnmarshalJSON decodes a JSON array of records. Duplicate student ids keep
// the first record.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var list []Record
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	l.records = l.records[:0]
	l.index = make(map[string]int, len(list))
	for _, r := range list {
		if _, dup := l.index[r.StudentID]; dup {
			continue
		}
		if l.Date == "" {
			l.Date = r.Date
		}
		l.index[r.StudentID] = len(l.records)
		l.records = append(l.records, r)
	}
	return nil
}
