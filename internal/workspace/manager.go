package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"stddocs/internal/assistant"
	"stddocs/internal/intake"
	"stddocs/internal/listview"
	"stddocs/internal/model"
	"stddocs/internal/service"
	"stddocs/internal/session"
	"stddocs/internal/upload"
)

// Snapshot is what a client sees after every workspace operation.
type Snapshot struct {
	ID     string        `json:"id"`
	List   listview.View `json:"list"`
	Intake intake.State  `json:"intake"`
}

// DeleteOutcome reports a delete request. Without confirmation nothing is
// removed and Prompt carries the question to ask.
type DeleteOutcome struct {
	Deleted              int    `json:"deleted"`
	ConfirmationRequired bool   `json:"confirmation_required"`
	Prompt               string `json:"prompt,omitempty"`
}

// IntakeUpdate carries the form fields to change; nil fields are left alone.
type IntakeUpdate struct {
	Name *string
	Type *string
}

// ErrSaveFailed is recorded on the form when a valid submission could not be stored.
var ErrSaveFailed = errors.New("failed to save document, please try again")

// Manager runs list and intake operations against stored workspaces.
// Operations on one workspace are serialized; different workspaces run concurrently.
type Manager struct {
	docs      service.DocumentService
	sessions  session.Store
	assistant *assistant.Assistant
	logger    *slog.Logger
	locks     keyedMutex
	now       func() time.Time
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager wires a Manager. asst may be nil, in which case assistant calls report no result.
func NewManager(docs service.DocumentService, sessions session.Store, asst *assistant.Assistant, opts ...Option) *Manager {
	m := &Manager{
		docs:      docs,
		sessions:  sessions,
		assistant: asst,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if e, ok := sessions.(session.Expirer); ok {
		e.OnExpire(m.discardExpired)
	}
	return m
}

// Create starts a new workspace with an empty search, no selection and a closed form.
func (m *Manager) Create(ctx context.Context) (Snapshot, error) {
	w := session.NewWorkspace(m.now())
	if err := m.sessions.Save(ctx, w); err != nil {
		return Snapshot{}, err
	}
	return m.snapshot(ctx, w)
}

func (m *Manager) Get(ctx context.Context, id string) (Snapshot, error) {
	return m.read(ctx, id)
}

// Close discards the workspace and any file still staged in its form.
func (m *Manager) Close(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	w, err := m.sessions.Load(ctx, id)
	if err != nil {
		return err
	}
	m.discard(ctx, w.Intake.CloseForm())
	return m.sessions.Delete(ctx, id)
}

func (m *Manager) SetSearch(ctx context.Context, id, term string) (Snapshot, error) {
	return m.update(ctx, id, func(w *session.Workspace) error {
		w.List.SetSearch(term)
		return nil
	})
}

// SelectAll selects exactly the documents visible under the current search.
func (m *Manager) SelectAll(ctx context.Context, id string) (Snapshot, error) {
	return m.update(ctx, id, func(w *session.Workspace) error {
		all, err := m.allDocuments(ctx)
		if err != nil {
			return err
		}
		w.List.SelectAll(listview.Filter(all, w.List.Search))
		return nil
	})
}

func (m *Manager) ClearSelection(ctx context.Context, id string) (Snapshot, error) {
	return m.update(ctx, id, func(w *session.Workspace) error {
		w.List.ClearSelection()
		return nil
	})
}

// Toggle flips one document's selection. Unknown documents are rejected.
func (m *Manager) Toggle(ctx context.Context, id, docID string) (Snapshot, error) {
	return m.update(ctx, id, func(w *session.Workspace) error {
		if w.List.IsSelected(docID) {
			w.List.Toggle(docID)
			return nil
		}
		if _, err := m.docs.Get(ctx, docID); err != nil {
			return err
		}
		w.List.Toggle(docID)
		return nil
	})
}

// DeleteSelected removes every selected document, including ones the current
// search hides, and clears the selection. It needs confirm; without it nothing changes.
func (m *Manager) DeleteSelected(ctx context.Context, id string, confirm bool) (Snapshot, DeleteOutcome, error) {
	var out DeleteOutcome
	snap, err := m.update(ctx, id, func(w *session.Workspace) error {
		all, err := m.allDocuments(ctx)
		if err != nil {
			return err
		}
		ids := w.List.SelectedIDs(all)
		if len(ids) == 0 {
			return nil
		}
		if !confirm {
			out = DeleteOutcome{
				ConfirmationRequired: true,
				Prompt:               fmt.Sprintf("确定要删除选中的 %d 个文档吗?", len(ids)),
			}
			return nil
		}
		n, err := m.docs.Delete(ctx, ids...)
		if err != nil {
			return err
		}
		w.List.ClearSelection()
		out.Deleted = n
		return nil
	})
	return snap, out, err
}

// DeleteOne removes a single document after confirmation and drops it from the selection.
func (m *Manager) DeleteOne(ctx context.Context, id, docID string, confirm bool) (Snapshot, DeleteOutcome, error) {
	var out DeleteOutcome
	snap, err := m.update(ctx, id, func(w *session.Workspace) error {
		if _, err := m.docs.Get(ctx, docID); err != nil {
			return err
		}
		if !confirm {
			out = DeleteOutcome{ConfirmationRequired: true, Prompt: "确认删除该文档?"}
			return nil
		}
		n, err := m.docs.Delete(ctx, docID)
		if err != nil {
			return err
		}
		w.List.Forget(docID)
		out.Deleted = n
		return nil
	})
	return snap, out, err
}

// OpenIntake resets and opens the form. A file staged by an earlier, abandoned form is discarded.
func (m *Manager) OpenIntake(ctx context.Context, id string) (Snapshot, error) {
	return m.update(ctx, id, func(w *session.Workspace) error {
		m.discard(ctx, w.Intake.OpenForm())
		return nil
	})
}

// CloseIntake cancels the form and discards its staged file.
func (m *Manager) CloseIntake(ctx context.Context, id string) (Snapshot, error) {
	return m.update(ctx, id, func(w *session.Workspace) error {
		m.discard(ctx, w.Intake.CloseForm())
		return nil
	})
}

func (m *Manager) UpdateIntake(ctx context.Context, id string, in IntakeUpdate) (Snapshot, error) {
	return m.update(ctx, id, func(w *session.Workspace) error {
		if !w.Intake.Open {
			return intake.ErrFormClosed
		}
		if in.Type != nil {
			t, err := model.ParseStandardType(*in.Type)
			if err != nil {
				return err
			}
			if err := w.Intake.SetType(t); err != nil {
				return err
			}
		}
		if in.Name != nil {
			if err := w.Intake.SetName(*in.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

// StageIntakeFile checks a file from either input path and, if accepted, writes
// it to storage and stages it on the form. A rejection is recorded on the form
// and also returned; the snapshot then shows the cleared file and the reason.
func (m *Manager) StageIntakeFile(ctx context.Context, id string, src intake.Source, f upload.File, r io.Reader, contentType string) (Snapshot, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	w, err := m.sessions.Load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}

	stale, rejection := w.Intake.CheckFile(src, f)
	if errors.Is(rejection, intake.ErrFormClosed) {
		return Snapshot{}, rejection
	}
	if rejection != nil {
		m.discard(ctx, stale)
		return m.save(ctx, w, rejection)
	}

	staged, err := m.docs.StageFile(ctx, f, r, contentType)
	if err != nil {
		return Snapshot{}, err
	}
	replaced, err := w.Intake.Accept(*staged)
	if err != nil {
		m.discard(ctx, staged)
		return Snapshot{}, err
	}
	snap, err := m.save(ctx, w, nil)
	if err != nil {
		m.discard(ctx, staged)
		return Snapshot{}, err
	}
	m.discard(ctx, replaced)
	return snap, nil
}

// RemoveIntakeFile unstages the form's file and discards its bytes.
func (m *Manager) RemoveIntakeFile(ctx context.Context, id string) (Snapshot, error) {
	return m.update(ctx, id, func(w *session.Workspace) error {
		stale, err := w.Intake.RemoveFile()
		if err != nil {
			return err
		}
		m.discard(ctx, stale)
		return nil
	})
}

// SubmitIntake validates the form and, on success, prepends the new record and
// closes the form. A validation failure keeps the form open with its message
// and is returned alongside the saved snapshot.
func (m *Manager) SubmitIntake(ctx context.Context, id string) (Snapshot, *model.StandardDocument, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	w, err := m.sessions.Load(ctx, id)
	if err != nil {
		return Snapshot{}, nil, err
	}

	req, invalid := w.Intake.Submission()
	if errors.Is(invalid, intake.ErrFormClosed) {
		return Snapshot{}, nil, invalid
	}
	if invalid != nil {
		snap, err := m.save(ctx, w, invalid)
		return snap, nil, err
	}

	file := req.File
	doc, err := m.docs.Create(ctx, service.CreateInput{Name: req.Name, Type: req.Type, File: &file})
	if err != nil {
		m.logger.Error("intake_submit_failed", "workspace_id", id, "error", err)
		w.Intake.Fail(ErrSaveFailed.Error())
		if _, saveErr := m.save(ctx, w, nil); saveErr != nil {
			m.logger.Error("workspace_save_failed", "workspace_id", id, "error", saveErr)
		}
		return Snapshot{}, nil, err
	}

	w.Intake.Complete()
	snap, err := m.save(ctx, w, nil)
	if err != nil {
		return Snapshot{}, doc, err
	}
	return snap, doc, nil
}

// SuggestIntakeType asks the assistant to classify the form's current name. The
// call runs without holding the workspace, and with apply set the result is only
// written if the same form is still open with the same name when it arrives.
func (m *Manager) SuggestIntakeType(ctx context.Context, id string, apply bool) (Snapshot, assistant.Suggestion, error) {
	w, err := m.sessions.Load(ctx, id)
	if err != nil {
		return Snapshot{}, assistant.Suggestion{}, err
	}
	if !w.Intake.Open {
		return Snapshot{}, assistant.Suggestion{}, intake.ErrFormClosed
	}
	name := w.Intake.Name

	sug := m.assistant.SuggestStandardType(ctx, name)
	if !apply || !sug.Available {
		snap, err := m.read(ctx, id)
		return snap, sug, err
	}

	snap, err := m.update(ctx, id, func(w *session.Workspace) error {
		if w.Intake.Name == name {
			w.Intake.ApplySuggestion(sug.Type)
		}
		return nil
	})
	return snap, sug, err
}

// DescribeIntake asks the assistant for a short description of the form's current name.
func (m *Manager) DescribeIntake(ctx context.Context, id string) (Snapshot, string, error) {
	w, err := m.sessions.Load(ctx, id)
	if err != nil {
		return Snapshot{}, "", err
	}
	if !w.Intake.Open {
		return Snapshot{}, "", intake.ErrFormClosed
	}
	desc := m.assistant.GenerateDescription(ctx, w.Intake.Name)
	snap, err := m.read(ctx, id)
	return snap, desc, err
}

func (m *Manager) read(ctx context.Context, id string) (Snapshot, error) {
	w, err := m.sessions.Load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return m.snapshot(ctx, w)
}

// update loads, mutates and saves a workspace under its lock. If fn fails
// nothing is saved.
func (m *Manager) update(ctx context.Context, id string, fn func(w *session.Workspace) error) (Snapshot, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	w, err := m.sessions.Load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := fn(w); err != nil {
		return Snapshot{}, err
	}
	return m.save(ctx, w, nil)
}

// save persists w and renders it. A non-nil result is returned with the
// snapshot when saving succeeds.
func (m *Manager) save(ctx context.Context, w *session.Workspace, result error) (Snapshot, error) {
	w.UpdatedAt = m.now().UTC()
	if err := m.sessions.Save(ctx, w); err != nil {
		return Snapshot{}, err
	}
	snap, err := m.snapshot(ctx, w)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, result
}

func (m *Manager) snapshot(ctx context.Context, w *session.Workspace) (Snapshot, error) {
	all, err := m.allDocuments(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ID: w.ID, List: w.List.Render(all), Intake: w.Intake}, nil
}

func (m *Manager) allDocuments(ctx context.Context) ([]model.StandardDocument, error) {
	res, err := m.docs.List(ctx, service.ListQuery{})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// discard deletes a staged file that will never be referenced. Failures only leave an orphaned object.
// discardExpired drops the bytes of a form that timed out with a file staged.
func (m *Manager) discardExpired(ctx context.Context, workspaceID string, f model.StagedFile) {
	m.logger.Info("staged_file_expired", "workspace_id", workspaceID, "key", f.Key)
	m.discard(ctx, &f)
}

func (m *Manager) discard(ctx context.Context, f *model.StagedFile) {
	if f == nil {
		return
	}
	if err := m.docs.DiscardFile(ctx, f.Key); err != nil {
		m.logger.Warn("staged_file_discard_failed", "key", f.Key, "error", err)
	}
}
