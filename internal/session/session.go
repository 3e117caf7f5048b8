package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"stddocs/internal/intake"
	"stddocs/internal/listview"
	"stddocs/internal/model"
)

// ErrNotFound is returned for unknown or expired workspaces.
var ErrNotFound = errors.New("workspace not found")

// Workspace is the UI state one client works in: list search and selection
// plus the intake form.
type Workspace struct {
	ID        string         `json:"id"`
	List      listview.State `json:"list"`
	Intake    intake.State   `json:"intake"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewWorkspace returns an empty workspace with a fresh ID and a closed form.
func NewWorkspace(now time.Time) *Workspace {
	return &Workspace{
		ID:        uuid.NewString(),
		Intake:    intake.State{Type: intake.DefaultType},
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Store persists workspaces between requests. Every Save refreshes the idle timeout.
type Store interface {
	Load(ctx context.Context, id string) (*Workspace, error)
	Save(ctx context.Context, w *Workspace) error
	Delete(ctx context.Context, id string) error
}

// ExpireFunc is told about the staged file of a workspace that timed out, so
// its bytes can be discarded. It is not called for workspaces without one.
type ExpireFunc func(ctx context.Context, workspaceID string, file model.StagedFile)

// Expirer is implemented by stores that report expired workspaces.
type Expirer interface {
	OnExpire(fn ExpireFunc)
}

// stagedFile returns a copy of the file held by w's form, or nil.
func stagedFile(w *Workspace) *model.StagedFile {
	if w.Intake.File == nil {
		return nil
	}
	f := *w.Intake.File
	return &f
}
