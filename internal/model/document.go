package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// NameMinLength and NameMaxLength bound a document name, counted in characters.
	NameMinLength = 1
	NameMaxLength = 128
)

// ErrNameLength is returned when a document name is empty or longer than NameMaxLength.
var ErrNameLength = errors.New("document name must be between 1 and 128 characters")

// StandardDocument describes one governance standard file.
// Records are created once and never edited in place; deletion is the only other transition.
type StandardDocument struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        StandardType `json:"type"`
	CreatedAt   time.Time    `json:"created_at"`
	Creator     string       `json:"creator"`
	FileName    string       `json:"file_name,omitempty"`
	FileSize    int64        `json:"file_size,omitempty"`
	StoragePath string       `json:"storage_path,omitempty"`
	ContentType string       `json:"content_type,omitempty"`
}

// HasFile reports whether the record points at stored file bytes.
func (d StandardDocument) HasFile() bool {
	return d.StoragePath != ""
}

// StagedFile is an accepted file already written to object storage
// but not yet referenced by any record.
type StagedFile struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// ValidateName checks the name length rule.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < NameMinLength || n > NameMaxLength {
		return ErrNameLength
	}
	return nil
}

// MatchesSearch reports whether term is a case-insensitive substring of the
// document's name or creator. An empty term matches every document.
func MatchesSearch(doc StandardDocument, term string) bool {
	if term == "" {
		return true
	}
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(doc.Name), t) ||
		strings.Contains(strings.ToLower(doc.Creator), t)
}
