// ABOUTME: Interface definition for playbook storage.
// ABOUTME: Defines the contract for loading and saving the key-point playbook.
package storage

import (
	"github.com/2389-research/curate/internal/models"
)

// PlaybookStore defines operations for playbook persistence.
type PlaybookStore interface {
	// Load reads the playbook. A missing file yields an empty playbook with
	// every canonical section present.
	Load() (*models.Playbook, error)

	// Save writes the playbook and stamps its last_updated time.
	Save(pb *models.Playbook) error

	// Path returns the backing file location.
	Path() string
}
