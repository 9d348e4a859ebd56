package payload

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Identity is the canonical student identity read from a QR payload.
// Optional fields are empty when the payload did not carry them.
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Grade    string `json:"grade,omitempty"`
	Guardian string `json:"guardian,omitempty"`
	Contact  string `json:"contact,omitempty"`
}

// Format names the branch that produced an Identity.
type Format string

const (
	FormatJSON     Format = "json"
	FormatLenient  Format = "lenient_json"
	FormatKeyValue Format = "key_value"
	FormatBare     Format = "bare"
)

// Alias lists, highest priority first.
var (
	idKeys       = []string{"ID", "id", "dni", "codigo"}
	nameKeys     = []string{"alumno", "nombre", "Usuario ejemplo"}
	gradeKeys    = []string{"GS", "grado", "seccion"}
	guardianKeys = []string{"Tutor", "padre", "tutor", "Padre/tutor"}
	contactKeys  = []string{"contacto", "celular", "telefono", "whatsapp"}
)

var (
	braceBlock  = regexp.MustCompile(`(?s)\{.*\}`)
	unquotedKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_\p{L}][\w\p{L}/ ]*?)(\s*):`)
	lineSplit   = regexp.MustCompile(`[\r\n;|,]+`)
)

// Parse resolves a raw scanned string into an Identity. It returns nil when
// nothing usable could be extracted; it never fails otherwise.
func Parse(raw string) *Identity {
	id, _ := ParseWithFormat(raw)
	return id
}

// ParseWithFormat is Parse, additionally reporting which format matched.
func ParseWithFormat(raw string) (*Identity, Format) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ""
	}

	if strings.HasPrefix(trimmed, "{") {
		if fields, ok := decodeObject(trimmed); ok {
			if id := fromFields(exactLookup(fields)); id != nil {
				return id, FormatJSON
			}
		}
	}

	if block := braceBlock.FindString(trimmed); block != "" {
		if fields, ok := decodeObject(relax(block)); ok {
			if id := fromFields(exactLookup(fields)); id != nil {
				return id, FormatLenient
			}
		}
	}

	if id := fromKeyValue(trimmed); id != nil {
		return id, FormatKeyValue
	}

	return &Identity{ID: trimmed}, FormatBare
}

// decodeObject decodes a JSON object keeping numbers as their literal text.
func decodeObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return fields, true
}

// relax rewrites loosely quoted JSON: single quotes become double quotes and
// bare keys in front of a colon get quoted.
func relax(block string) string {
	s := strings.ReplaceAll(block, "'", `"`)
	return unquotedKey.ReplaceAllString(s, `$1"$2"$3:`)
}

type lookupFunc func(key string) (string, bool)

func exactLookup(fields map[string]any) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := fields[key]
		if !ok {
			return "", false
		}
		return stringify(v)
	}
}

func stringify(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		if t {
			s = "true"
		} else {
			s = "false"
		}
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func firstOf(lookup lookupFunc, keys []string) string {
	for _, k := range keys {
		if v, ok := lookup(k); ok {
			return v
		}
	}
	return ""
}

func fromFields(lookup lookupFunc) *Identity {
	id := firstOf(lookup, idKeys)
	if id == "" {
		return nil
	}
	return &Identity{
		ID:       id,
		Name:     firstOf(lookup, nameKeys),
		Grade:    firstOf(lookup, gradeKeys),
		Guardian: firstOf(lookup, guardianKeys),
		Contact:  firstOf(lookup, contactKeys),
	}
}

// recognized holds every alias in uppercase form.
var recognized = func() map[string]bool {
	m := map[string]bool{}
	for _, list := range [][]string{idKeys, nameKeys, gradeKeys, guardianKeys, contactKeys} {
		for _, k := range list {
			m[upperKey(k)] = true
		}
	}
	return m
}()

// upperKey builds a fresh Caser per call; Casers keep state between calls.
func upperKey(s string) string {
	return cases.Upper(language.Und).String(s)
}

func fromKeyValue(s string) *Identity {
	values := map[string]string{}
	for _, line := range lineSplit.Split(s, -1) {
		cut := strings.IndexAny(line, ":=")
		if cut <= 0 {
			continue
		}
		key := upperKey(strings.TrimSpace(line[:cut]))
		val := strings.TrimSpace(line[cut+1:])
		if key == "" {
			continue
		}
		if _, seen := values[key]; !seen {
			values[key] = val
		}
	}

	hits := 0
	for k := range values {
		if recognized[k] {
			hits++
		}
	}
	if hits < 2 {
		return nil
	}

	lookup := func(key string) (string, bool) {
		v, ok := values[upperKey(key)]
		return v, ok && v != ""
	}
	return fromFields(lookup)
}
