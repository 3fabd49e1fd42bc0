// Package store keeps flowspec documents as *.flow.yaml files in a
// directory, with a revision snapshot for every write.
package store

import "time"

// Extension is the suffix that marks a file as a flowspec document.
const Extension = ".flow.yaml"

// File is a document found in the store directory.
type File struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Revision is one saved snapshot of a document.
type Revision struct {
	Number  int       `json:"number"`
	Path    string    `json:"path"`
	SavedAt time.Time `json:"saved_at"`
}

// IndexEntry summarizes a document in the index file.
type IndexEntry struct {
	Name      string    `json:"name"`
	FlowID    string    `json:"flow_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Steps     int       `json:"steps"`
	Revisions int       `json:"revisions"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Index is the top-level structure of .flowspec/index.json.
type Index struct {
	Flows []IndexEntry `json:"flows"`
}

// header is the slice of a document the index needs.
type header struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Owner string `yaml:"owner"`
	Steps []any  `yaml:"steps"`
}
