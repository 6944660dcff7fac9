// Package storage defines the dashboard directory abstraction.
package storage

import "github.com/starford/lookviz/internal/models"

// Provider is the interface for dashboard file operations. All paths are
// relative to the provider root.
type Provider interface {
	// List returns metadata for every dashboard source file under dir.
	List(dir string) ([]models.DashboardFile, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Abs resolves path to an absolute file name inside the root.
	Abs(path string) (string, error)
}
