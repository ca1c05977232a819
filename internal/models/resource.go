// Package models defines the vault-level types shared by storage and index.
package models

import "time"

// ResourceMetadata is a lightweight description of a vault file.
type ResourceMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rotation describes one daily canvas known to the index.
type Rotation struct {
	Key       string    `json:"key"`
	Path      string    `json:"path"`
	NodeCount int       `json:"node_count"`
	UpdatedAt time.Time `json:"updated_at"`
}
