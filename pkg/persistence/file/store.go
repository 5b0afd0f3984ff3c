// Package file loads button-store snapshots from a JSON or YAML document on
// disk. Every Snapshot call re-reads the document, so each workflow run sees
// an isolated copy of the definitions.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chatbtn/chatflow/pkg/models"
	"github.com/chatbtn/chatflow/pkg/persistence"
)

// Document is the on-disk snapshot shape: workflows and legacy actions keyed
// by ID. Modular actions are code, not data, so they come from the registry
// the store is constructed with.
type Document struct {
	Workflows map[string]*models.WorkflowDefinition `json:"workflows" yaml:"workflows"`
	Actions   map[string]*models.ActionDefinition   `json:"actions"   yaml:"actions"`
}

// Store reads snapshot documents from a single file.
type Store struct {
	path    string
	modular persistence.ModularLookup
}

func NewStore(path string, modular persistence.ModularLookup) *Store {
	return &Store{path: path, modular: modular}
}

// Snapshot loads a fresh snapshot from the backing file.
func (s *Store) Snapshot(_ context.Context) (persistence.Snapshot, error) {
	document, err := ReadDocument(s.path)
	if err != nil {
		return nil, err
	}

	return persistence.NewStaticSnapshot(document.Workflows, document.Actions, s.modular), nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

// ReadDocument parses a snapshot document from disk. The format is chosen by
// extension: .yaml/.yml for YAML, anything else is treated as JSON.
func ReadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &persistence.SnapshotError{
			Op:     "Load",
			Source: path,
			Err:    fmt.Errorf("%w: %w", persistence.ErrSnapshotUnreadable, err),
		}
	}

	document := &Document{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, document)
	default:
		err = json.Unmarshal(raw, document)
	}

	if err != nil {
		return nil, &persistence.SnapshotError{
			Op:     "Decode",
			Source: path,
			Err:    fmt.Errorf("%w: %w", persistence.ErrSnapshotUnreadable, err),
		}
	}

	if document.Workflows == nil {
		document.Workflows = map[string]*models.WorkflowDefinition{}
	}

	if document.Actions == nil {
		document.Actions = map[string]*models.ActionDefinition{}
	}

	// Workflow and node IDs may be omitted in hand-written documents when
	// the map key already names them.
	for workflowID, workflow := range document.Workflows {
		if workflow.ID == "" {
			workflow.ID = workflowID
		}

		for id, node := range workflow.Nodes {
			if node.ID == "" {
				node.ID = id
			}
		}
	}

	return document, nil
}

// Validate checks every definition in the document.
func (d *Document) Validate() error {
	for id, workflow := range d.Workflows {
		if err := workflow.Validate(); err != nil {
			return fmt.Errorf("workflow '%s' invalid: %w", id, err)
		}
	}

	for id, action := range d.Actions {
		if _, err := models.ParseActionKind(action.Kind); err != nil {
			return fmt.Errorf("action '%s' invalid: %w", id, err)
		}
	}

	return nil
}
