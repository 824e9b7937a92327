package state

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadDocument reads a single expected-state YAML document from path.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read expected-state document %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse expected-state document %s: %w", path, err)
	}
	if doc.Host == "" {
		return Document{}, fmt.Errorf("expected-state document %s has no host", path)
	}
	return doc, nil
}
