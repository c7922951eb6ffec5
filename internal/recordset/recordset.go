// Package recordset reads and writes record lists that feed batch runs.
//
// Files are YAML (.yaml, .yml) or JSON (.json). Either format may hold a bare
// list of records or an object with an "items" list, which is the shape the
// search and user-items endpoints return, so their output can be saved and
// fed back in unchanged.
package recordset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
)

type envelope struct {
	Items []archiveapi.Record `json:"items" yaml:"items"`
}

// Load reads records from path.
func Load(path string) ([]archiveapi.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	var records []archiveapi.Record
	switch format(path) {
	case "json":
		records, err = decodeJSON(data)
	default:
		records, err = decodeYAML(data)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "load records", filepath.Base(path), err)
	}
	if err := Validate(records); err != nil {
		return nil, err
	}
	return records, nil
}

// Save writes records to path in the format implied by its extension.
func Save(path string, records []archiveapi.Record) error {
	var (
		data []byte
		err  error
	)
	switch format(path) {
	case "json":
		data, err = json.MarshalIndent(envelope{Items: records}, "", "  ")
		data = append(data, '\n')
	default:
		data, err = yaml.Marshal(envelope{Items: records})
	}
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write record file: %w", err)
	}
	return nil
}

// Validate rejects records without an identifier and duplicate identifiers.
func Validate(records []archiveapi.Record) error {
	seen := make(map[string]int, len(records))
	for i, r := range records {
		id := strings.TrimSpace(r.Identifier)
		if id == "" {
			return services.Wrap(services.ErrValidation, "", "load records", fmt.Sprintf("record %d has no identifier", i+1), nil)
		}
		if prev, ok := seen[id]; ok {
			return services.Wrap(services.ErrValidation, "", "load records", fmt.Sprintf("identifier %q repeated at records %d and %d", id, prev+1, i+1), nil)
		}
		seen[id] = i
	}
	return nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

func decodeJSON(data []byte) ([]archiveapi.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var records []archiveapi.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

func decodeYAML(data []byte) ([]archiveapi.Record, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var records []archiveapi.Record
		if err := root.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var env envelope
	if err := root.Decode(&env); err != nil {
		return nil, err
	}
	return env.Items, nil
}
