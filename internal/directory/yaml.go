package directory

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type rosterFile struct {
	Students []Student `yaml:"students"`
}

// ReadYAML decodes a roster document with a top-level "students" list.
func ReadYAML(r io.Reader) ([]Student, error) {
	var doc rosterFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	for i, s := range doc.Students {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("roster entry %d: %w", i+1, err)
		}
	}
	return doc.Students, nil
}

// LoadYAML reads a roster file from disk.
func LoadYAML(path string) ([]Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadYAML(f)
}
