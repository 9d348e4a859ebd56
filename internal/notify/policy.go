package notify

import "strings"

// TemplatePolicy lists literal phrases a generated message must contain.
// Placeholders {student}, {guardian} and {time} are expanded per request.
// A nil policy accepts any non-empty text.
type TemplatePolicy struct {
	Present []string
	Absent  []string
}

// DefaultPolicy requires the student's name in every message and the
// arrival time in present messages.
func DefaultPolicy() *TemplatePolicy {
	return &TemplatePolicy{
		Present: []string{"{student}", "{time}"},
		Absent:  []string{"{student}"},
	}
}

// Accept reports whether text satisfies the policy for req.
func (p *TemplatePolicy) Accept(req Request, text string) bool {
	if p == nil {
		return true
	}
	phrases := p.Absent
	if req.Kind == KindPresent {
		phrases = p.Present
	}
	r := strings.NewReplacer("{student}", req.StudentName, "{guardian}", req.GuardianName, "{time}", req.Time)
	for _, ph := range phrases {
		want := r.Replace(ph)
		if want != "" && !strings.Contains(text, want) {
			return false
		}
	}
	return true
}
