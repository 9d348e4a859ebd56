package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Unknown fills student fields a scan payload did not carry.
const Unknown = "unknown"

var (
	ErrDuplicate = errors.New("student already enrolled")
	ErrInvalid   = errors.New("invalid student")
)

var validate = validator.New()

// Student is a directory entry. ID is the join key used by attendance records.
type Student struct {
	ID              string `json:"id" yaml:"id" validate:"required,max=128"`
	Name            string `json:"name" yaml:"name" validate:"required,max=200"`
	Grade           string `json:"grade" yaml:"grade"`
	GuardianName    string `json:"guardianName" yaml:"guardianName"`
	GuardianContact string `json:"guardianContact" yaml:"guardianContact"`
}

// Validate checks required fields.
func (s Student) Validate() error {
	if err := validate.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}

// Directory is an ordered collection of students keyed by ID. Enrollment
// order is preserved so new day ledgers list students the same way.
// It is not safe for concurrent use; the owner serializes access.
type Directory struct {
	students []Student
	index    map[string]int
}

// New builds a directory from seed students, skipping duplicate ids.
func New(seed ...Student) *Directory {
	d := &Directory{index: make(map[string]int)}
	for _, s := range seed {
		_ = d.Enroll(s)
	}
	return d
}

// Lookup returns a copy of the student with the given id, or nil.
func (d *Directory) Lookup(id string) *Student {
	i, ok := d.index[id]
	if !ok {
		return nil
	}
	s := d.students[i]
	return &s
}

// Enroll appends a new student. The id must not already exist.
func (d *Directory) Enroll(s Student) error {
	s.ID = strings.TrimSpace(s.ID)
	if err := s.Validate(); err != nil {
		return err
	}
	if _, ok := d.index[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, s.ID)
	}
	d.index[s.ID] = len(d.students)
	d.students = append(d.students, s)
	return nil
}

// Remove deletes the student with the given id and reports whether it existed.
func (d *Directory) Remove(id string) bool {
	i, ok := d.index[id]
	if !ok {
		return false
	}
	d.students = append(d.students[:i], d.students[i+1:]...)
	d.reindex()
	return true
}

// Students returns the students in enrollment order.
func (d *Directory) Students() []Student {
	out := make([]Student, len(d.students))
	copy(out, d.students)
	return out
}

// Len returns the number of enrolled students.
func (d *Directory) Len() int { return len(d.students) }

func (d *Directory) reindex() {
	d.index = make(map[string]int, len(d.students))
	for i, s := range d.students {
		d.index[s.ID] = i
	}
}

// MarshalJSON encodes the directory as a JSON array.
func (d *Directory) MarshalJSON() ([]byte, error) {
	if d.students == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.students)
}

// UnmarshalJSON decodes a JSON array of students. Entries repeating an
// earlier id are dropped.
func (d *Directory) UnmarshalJSON(data []byte) error {
	var list []Student
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	d.students = d.students[:0]
	d.index = make(map[string]int, len(list))
	for _, s := range list {
		if _, dup := d.index[s.ID]; dup {
			continue
		}
		d.index[s.ID] = len(d.students)
		d.students = append(d.students, s)
	}
	return nil
}

// FromIdentity synthesizes a student for auto-enrollment. Missing optional
// fields become Unknown.
func FromIdentity(id, name, grade, guardian, contact string) Student {
	return Student{
		ID:              id,
		Name:            name,
		Grade:           orUnknown(grade),
		GuardianName:    orUnknown(guardian),
		GuardianContact: orUnknown(contact),
	}
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return Unknown
	}
	return v
}
