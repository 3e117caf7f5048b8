package intake

import (
	"errors"
	"fmt"

	"stddocs/internal/model"
	"stddocs/internal/upload"
)

var (
	// ErrFormClosed is returned by edits and submissions while the form is closed.
	ErrFormClosed = errors.New("intake form is not open")
	// ErrFileRequired is the submission error when no accepted file is staged.
	ErrFileRequired = errors.New("please upload a standard file")
	// ErrInvalidSource is returned for an unknown file input path.
	ErrInvalidSource = errors.New("file source must be picker or drop")
)

// DefaultType is the classification a freshly opened form starts with.
const DefaultType = model.StandardTypeNational

// Source is the input path a file arrived through. Both paths run the same validation.
type Source string

const (
	SourcePicker Source = "picker"
	SourceDrop   Source = "drop"
)

// ParseSource accepts "picker" and "drop". An empty value means the picker.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case "", SourcePicker:
		return SourcePicker, nil
	case SourceDrop:
		return SourceDrop, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
}

// State is the intake form. It is either closed or open; the transient
// fields only carry meaning while open.
type State struct {
	Open  bool               `json:"open"`
	Name  string             `json:"name"`
	Type  model.StandardType `json:"type"`
	File  *model.StagedFile  `json:"file,omitempty"`
	Error string             `json:"error,omitempty"`
}

// Request is a submission that passed validation and can be turned into a record.
type Request struct {
	Name string
	Type model.StandardType
	File model.StagedFile
}

// OpenForm resets every field and opens the form, whatever state it was in.
// It returns the previously staged file, if any, so the caller can discard its bytes.
func (s *State) OpenForm() *model.StagedFile {
	stale := s.File
	*s = State{Open: true, Type: DefaultType}
	return stale
}

// CloseForm cancels the form. The staged file, if any, is returned for discarding.
func (s *State) CloseForm() *model.StagedFile {
	stale := s.File
	*s = State{Type: DefaultType}
	return stale
}

// SetName replaces the candidate name. The length rule is only checked on submit.
func (s *State) SetName(name string) error {
	if !s.Open {
		return ErrFormClosed
	}
	s.Name = name
	return nil
}

// SetType changes the classification.
func (s *State) SetType(t model.StandardType) error {
	if !s.Open {
		return ErrFormClosed
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidStandardType, t)
	}
	s.Type = t
	return nil
}

// CheckFile runs the upload rules on a candidate from either input path.
// On rejection the error message is set, the staged file is cleared and returned
// so a stale accepted file cannot be resubmitted, and the rejection is returned.
// On acceptance nothing changes until Accept is called with the staged result.
func (s *State) CheckFile(_ Source, f upload.File) (*model.StagedFile, error) {
	if !s.Open {
		return nil, ErrFormClosed
	}
	if err := upload.Validate(f); err != nil {
		stale := s.File
		s.File = nil
		s.Error = upload.Reason(err)
		return stale, err
	}
	return nil, nil
}

// Accept stages f, clears any error and returns the file it replaced.
func (s *State) Accept(f model.StagedFile) (*model.StagedFile, error) {
	if !s.Open {
		return nil, ErrFormClosed
	}
	replaced := s.File
	s.File = &f
	s.Error = ""
	return replaced, nil
}

// RemoveFile unstages the current file and returns it.
func (s *State) RemoveFile() (*model.StagedFile, error) {
	if !s.Open {
		return nil, ErrFormClosed
	}
	stale := s.File
	s.File = nil
	return stale, nil
}

// Submission validates the form. On failure the form stays open with the message set.
func (s *State) Submission() (Request, error) {
	if !s.Open {
		return Request{}, ErrFormClosed
	}
	if err := model.ValidateName(s.Name); err != nil {
		s.Error = err.Error()
		return Request{}, err
	}
	if s.File == nil {
		s.Error = ErrFileRequired.Error()
		return Request{}, ErrFileRequired
	}
	s.Error = ""
	return Request{Name: s.Name, Type: s.Type, File: *s.File}, nil
}

// Fail records a message for a submission that passed validation but could not be stored.
func (s *State) Fail(msg string) {
	if s.Open {
		s.Error = msg
	}
}

// Complete closes the form after its request was stored. The staged file now
// belongs to the record and is not returned.
func (s *State) Complete() {
	*s = State{Type: DefaultType}
}

// ApplySuggestion sets the classification from an assistant result. A form that
// was closed while the call was in flight ignores it.
func (s *State) ApplySuggestion(t model.StandardType) bool {
	if !s.Open || !t.Valid() {
		return false
	}
	s.Type = t
	return true
}
