package labels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/service"
)

// ModelConfigFile is the model config holding the id2label mapping
const ModelConfigFile = "config.json"

// Table is an immutable index to label mapping
type Table struct {
	labels []string
}

// NewTable builds a table from labels in index order
func NewTable(labels []string) (*Table, error) {
	if len(labels) == 0 {
		return nil, &service.ConfigError{Reason: "label table is empty"}
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return nil, &service.ConfigError{Reason: fmt.Sprintf("label %d is empty", i)}
		}
		out[i] = l
	}
	return &Table{labels: out}, nil
}

type modelConfig struct {
	ID2Label  map[string]string `json:"id2label"`
	NumLabels *int              `json:"num_labels"`
}

// Load returns the label table for the model artifact in dir. A non-empty
// override replaces the artifact's table.
func Load(dir string, override []string) (*Table, error) {
	if len(override) > 0 {
		return NewTable(override)
	}

	path := filepath.Join(dir, ModelConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &service.ConfigError{Reason: "failed to read model config", Err: err}
	}

	var cfg modelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &service.ConfigError{Reason: "failed to parse model config", Err: err}
	}
	if len(cfg.ID2Label) == 0 {
		return nil, &service.ConfigError{Reason: fmt.Sprintf("%s has no id2label mapping", path)}
	}

	labels := make([]string, len(cfg.ID2Label))
	seen := make([]bool, len(cfg.ID2Label))
	for key, label := range cfg.ID2Label {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, &service.ConfigError{Reason: fmt.Sprintf("id2label key %q is not an integer", key)}
		}
		// ids must be exactly 0..n-1
		if idx < 0 || idx >= len(labels) || seen[idx] {
			return nil, &service.ConfigError{Reason: fmt.Sprintf("id2label ids are not contiguous from 0: found %d", idx)}
		}
		labels[idx] = label
		seen[idx] = true
	}

	if cfg.NumLabels != nil && *cfg.NumLabels != len(labels) {
		return nil, &service.ConfigError{
			Reason: fmt.Sprintf("num_labels is %d but id2label has %d entries", *cfg.NumLabels, len(labels)),
		}
	}

	return NewTable(labels)
}

// Resolve returns the label for index
func (t *Table) Resolve(index int) (string, error) {
	if index < 0 || index >= len(t.labels) {
		return "", &service.ConfigError{
			Reason: fmt.Sprintf("class index %d outside label table of size %d", index, len(t.labels)),
		}
	}
	return t.labels[index], nil
}

// Len returns the number of classes
func (t *Table) Len() int {
	return len(t.labels)
}

// Labels returns a copy of the labels in index order
func (t *Table) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}
