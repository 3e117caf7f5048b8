package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"stddocs/internal/assistant"
	"stddocs/internal/intake"
	"stddocs/internal/model"
	"stddocs/internal/repository/memory"
	"stddocs/internal/service"
	"stddocs/internal/session"
	"stddocs/internal/storage"
	"stddocs/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generatorFunc func(ctx context.Context, req assistant.Request) (string, error)

func (f generatorFunc) Generate(ctx context.Context, req assistant.Request) (string, error) {
	return f(ctx, req)
}

type fixture struct {
	mgr      *Manager
	repo     *memory.DocumentMemory
	objects  storage.Storage
	sessions *session.MemoryStore
}

func newFixture(t *testing.T, gen assistant.Generator) *fixture {
	t.Helper()
	repo := memory.NewDocumentMemory(model.DemoDocuments()...)
	objects := storage.NewMemory()
	svc := service.NewDocumentService(objects, repo)
	var asst *assistant.Assistant
	if gen != nil {
		asst = assistant.New(gen)
	}
	sessions := session.NewMemoryStore(time.Hour)
	mgr := NewManager(svc, sessions, asst)
	return &fixture{mgr: mgr, repo: repo, objects: objects, sessions: sessions}
}

func (f *fixture) ids(t *testing.T) []string {
	t.Helper()
	docs, err := f.repo.List(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func (f *fixture) objectExists(key string) bool {
	_, _, err := f.objects.Get(context.Background(), key)
	return err == nil
}

func stagePDF(t *testing.T, f *fixture, id string) Snapshot {
	t.Helper()
	body := "%PDF-1.4"
	snap, err := f.mgr.StageIntakeFile(context.Background(), id, intake.SourcePicker,
		upload.File{Name: "policy.pdf", Size: int64(len(body))}, strings.NewReader(body), "application/pdf")
	require.NoError(t, err)
	return snap
}

func ptr(s string) *string { return &s }

func TestManager_CreateAndGet(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	snap, err := f.mgr.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 3, snap.List.Count)
	assert.False(t, snap.Intake.Open)

	got, err := f.mgr.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)

	_, err = f.mgr.Get(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestManager_SearchAndSelectAllVisible(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)

	snap, err := f.mgr.SetSearch(ctx, snap.ID, "GB")
	require.NoError(t, err)
	require.Len(t, snap.List.Items, 1)
	assert.Equal(t, "2", snap.List.Items[0].ID)

	snap, err = f.mgr.SelectAll(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, snap.List.Selected)
	assert.True(t, snap.List.AllSelected)

	snap, err = f.mgr.SetSearch(ctx, snap.ID, "zzz")
	require.NoError(t, err)
	assert.True(t, snap.List.Empty)
	assert.Equal(t, []string{"2"}, snap.List.Selected, "selection survives a stricter filter")

	snap, err = f.mgr.ClearSelection(ctx, snap.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.List.Selected)
}

func TestManager_Toggle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)

	snap, err := f.mgr.Toggle(ctx, snap.ID, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, snap.List.Selected)

	snap, err = f.mgr.Toggle(ctx, snap.ID, "1")
	require.NoError(t, err)
	assert.Empty(t, snap.List.Selected)

	_, err = f.mgr.Toggle(ctx, snap.ID, "nope")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestManager_DeleteSelectedRequiresConfirmation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.Toggle(ctx, snap.ID, "1")
	_, _ = f.mgr.Toggle(ctx, snap.ID, "3")

	snap, out, err := f.mgr.DeleteSelected(ctx, snap.ID, false)
	require.NoError(t, err)
	assert.True(t, out.ConfirmationRequired)
	assert.Equal(t, "确定要删除选中的 2 个文档吗?", out.Prompt)
	assert.Equal(t, 0, out.Deleted)
	assert.Equal(t, []string{"1", "2", "3"}, f.ids(t))
	assert.Equal(t, []string{"1", "3"}, snap.List.Selected)

	snap, out, err = f.mgr.DeleteSelected(ctx, snap.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Deleted)
	assert.Equal(t, []string{"2"}, f.ids(t))
	assert.Empty(t, snap.List.Selected)
	assert.Equal(t, 1, snap.List.Total)
}

func TestManager_DeleteSelectedIncludesHiddenSelection(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.SelectAll(ctx, snap.ID)
	_, _ = f.mgr.SetSearch(ctx, snap.ID, "王五")

	_, out, err := f.mgr.DeleteSelected(ctx, snap.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Deleted)
	assert.Empty(t, f.ids(t))
}

func TestManager_DeleteSelectedWithNothingSelected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)

	_, out, err := f.mgr.DeleteSelected(ctx, snap.ID, true)
	require.NoError(t, err)
	assert.Equal(t, DeleteOutcome{}, out)
	assert.Len(t, f.ids(t), 3)
}

func TestManager_DeleteOne(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.Toggle(ctx, snap.ID, "2")
	_, _ = f.mgr.Toggle(ctx, snap.ID, "3")

	_, out, err := f.mgr.DeleteOne(ctx, snap.ID, "2", false)
	require.NoError(t, err)
	assert.True(t, out.ConfirmationRequired)
	assert.Equal(t, "确认删除该文档?", out.Prompt)
	assert.Len(t, f.ids(t), 3)

	snap, out, err = f.mgr.DeleteOne(ctx, snap.ID, "2", true)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Deleted)
	assert.Equal(t, []string{"1", "3"}, f.ids(t))
	assert.Equal(t, []string{"3"}, snap.List.Selected)

	_, _, err = f.mgr.DeleteOne(ctx, snap.ID, "2", true)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestManager_SubmitEmptyNameIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, err := f.mgr.OpenIntake(ctx, snap.ID)
	require.NoError(t, err)
	stagePDF(t, f, snap.ID)

	snap, doc, err := f.mgr.SubmitIntake(ctx, snap.ID)

	assert.ErrorIs(t, err, model.ErrNameLength)
	assert.Nil(t, doc)
	assert.True(t, snap.Intake.Open)
	assert.Equal(t, "document name must be between 1 and 128 characters", snap.Intake.Error)
	assert.Equal(t, []string{"1", "2", "3"}, f.ids(t))

	// the message is persisted with the form
	again, err := f.mgr.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Intake.Error, again.Intake.Error)
}

func TestManager_SubmitWithoutFileIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.OpenIntake(ctx, snap.ID)
	_, err := f.mgr.UpdateIntake(ctx, snap.ID, IntakeUpdate{Name: ptr("Policy A")})
	require.NoError(t, err)

	snap, _, err = f.mgr.SubmitIntake(ctx, snap.ID)
	assert.ErrorIs(t, err, intake.ErrFileRequired)
	assert.Equal(t, "please upload a standard file", snap.Intake.Error)
	assert.True(t, snap.Intake.Open)
}

func TestManager_SubmitPolicyA(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	before := time.Now().UTC()

	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.OpenIntake(ctx, snap.ID)
	_, err := f.mgr.UpdateIntake(ctx, snap.ID, IntakeUpdate{Name: ptr("Policy A"), Type: ptr("industry")})
	require.NoError(t, err)
	staged := stagePDF(t, f, snap.ID)
	require.NotNil(t, staged.Intake.File)

	snap, doc, err := f.mgr.SubmitIntake(ctx, snap.ID)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.False(t, snap.Intake.Open)
	ids := f.ids(t)
	require.Len(t, ids, 4)
	assert.Equal(t, doc.ID, ids[0], "new record is at the front")
	assert.NotContains(t, []string{"1", "2", "3"}, doc.ID)
	assert.Equal(t, "Policy A", doc.Name)
	assert.Equal(t, model.StandardTypeIndustry, doc.Type)
	assert.Equal(t, service.DefaultCreator, doc.Creator)
	assert.False(t, doc.CreatedAt.Before(before))
	assert.Equal(t, "policy.pdf", doc.FileName)
	assert.True(t, f.objectExists(doc.StoragePath))
	assert.Equal(t, doc.ID, snap.List.Items[0].ID)
}

func TestManager_IntakeOnClosedForm(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)

	_, err := f.mgr.UpdateIntake(ctx, snap.ID, IntakeUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, intake.ErrFormClosed)
	_, _, err = f.mgr.SubmitIntake(ctx, snap.ID)
	assert.ErrorIs(t, err, intake.ErrFormClosed)
	_, err = f.mgr.StageIntakeFile(ctx, snap.ID, intake.SourceDrop, upload.File{Name: "a.pdf", Size: 1}, strings.NewReader("a"), "")
	assert.ErrorIs(t, err, intake.ErrFormClosed)
}

func TestManager_UpdateIntakeInvalidType(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.OpenIntake(ctx, snap.ID)

	_, err := f.mgr.UpdateIntake(ctx, snap.ID, IntakeUpdate{Name: ptr("kept?"), Type: ptr("CITY")})
	assert.ErrorIs(t, err, model.ErrInvalidStandardType)

	snap, _ = f.mgr.Get(ctx, snap.ID)
	assert.Empty(t, snap.Intake.Name, "a failed update saves nothing")
}

func TestManager_RejectedFileClearsStagedFile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.OpenIntake(ctx, snap.ID)
	staged := stagePDF(t, f, snap.ID)
	key := staged.Intake.File.Key
	require.True(t, f.objectExists(key))

	snap, err := f.mgr.StageIntakeFile(ctx, snap.ID, intake.SourceDrop,
		upload.File{Name: "huge.zip", Size: upload.MaxFileSize + 1}, strings.NewReader(""), "")

	assert.ErrorIs(t, err, upload.ErrFileTooLarge)
	assert.Nil(t, snap.Intake.File)
	assert.Equal(t, "file size must not exceed 10MB", snap.Intake.Error)
	assert.False(t, f.objectExists(key), "stale staged bytes are discarded")
}

func TestManager_ReplacingAndRemovingStagedFile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.OpenIntake(ctx, snap.ID)

	first := stagePDF(t, f, snap.ID).Intake.File.Key
	second := stagePDF(t, f, snap.ID).Intake.File.Key
	assert.NotEqual(t, first, second)
	assert.False(t, f.objectExists(first))
	assert.True(t, f.objectExists(second))

	snap, err := f.mgr.RemoveIntakeFile(ctx, snap.ID)
	require.NoError(t, err)
	assert.Nil(t, snap.Intake.File)
	assert.False(t, f.objectExists(second))
}

func TestManager_ReopenAndCloseDiscardStagedFile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.OpenIntake(ctx, snap.ID)
	_, _ = f.mgr.UpdateIntake(ctx, snap.ID, IntakeUpdate{Name: ptr("draft")})
	key := stagePDF(t, f, snap.ID).Intake.File.Key

	snap, err := f.mgr.OpenIntake(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, intake.State{Open: true, Type: model.StandardTypeNational}, snap.Intake)
	assert.False(t, f.objectExists(key))

	key = stagePDF(t, f, snap.ID).Intake.File.Key
	snap, err = f.mgr.CloseIntake(ctx, snap.ID)
	require.NoError(t, err)
	assert.False(t, snap.Intake.Open)
	assert.False(t, f.objectExists(key))
}

func TestManager_Close(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.OpenIntake(ctx, snap.ID)
	key := stagePDF(t, f, snap.ID).Intake.File.Key

	require.NoError(t, f.mgr.Close(ctx, snap.ID))
	assert.False(t, f.objectExists(key))
	_, err := f.mgr.Get(ctx, snap.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestManager_SuggestIntakeType(t *testing.T) {
	gen := generatorFunc(func(context.Context, assistant.Request) (string, error) {
		return `{"type":"REGIONAL"}`, nil
	})
	f := newFixture(t, gen)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)

	_, _, err := f.mgr.SuggestIntakeType(ctx, snap.ID, true)
	assert.ErrorIs(t, err, intake.ErrFormClosed)

	_, _ = f.mgr.OpenIntake(ctx, snap.ID)
	_, _ = f.mgr.UpdateIntake(ctx, snap.ID, IntakeUpdate{Name: ptr("DB31/T 1311-2021")})

	snap, sug, err := f.mgr.SuggestIntakeType(ctx, snap.ID, false)
	require.NoError(t, err)
	assert.Equal(t, assistant.Suggestion{Type: model.StandardTypeRegional, Available: true}, sug)
	assert.Equal(t, model.StandardTypeNational, snap.Intake.Type, "not applied without apply")

	snap, _, err = f.mgr.SuggestIntakeType(ctx, snap.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.StandardTypeRegional, snap.Intake.Type)
}

func TestManager_SuggestionDroppedWhenFormClosedMeanwhile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	id := snap.ID

	var once sync.Once
	gen := generatorFunc(func(context.Context, assistant.Request) (string, error) {
		// the user cancels the form while the call is in flight
		once.Do(func() { _, _ = f.mgr.CloseIntake(ctx, id) })
		return `{"type":"INDUSTRY"}`, nil
	})
	f.mgr.assistant = assistant.New(gen)

	_, _ = f.mgr.OpenIntake(ctx, id)
	_, _ = f.mgr.UpdateIntake(ctx, id, IntakeUpdate{Name: ptr("JR/T 0197")})

	snap, sug, err := f.mgr.SuggestIntakeType(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, sug.Available)
	assert.False(t, snap.Intake.Open)
	assert.Equal(t, model.StandardTypeNational, snap.Intake.Type)
}

func TestManager_AssistantFailureIsNotAnError(t *testing.T) {
	gen := generatorFunc(func(context.Context, assistant.Request) (string, error) {
		return "", errors.New("remote down")
	})
	f := newFixture(t, gen)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.OpenIntake(ctx, snap.ID)
	_, _ = f.mgr.UpdateIntake(ctx, snap.ID, IntakeUpdate{Name: ptr("GB/T 36073-2018")})

	_, sug, err := f.mgr.SuggestIntakeType(ctx, snap.ID, true)
	require.NoError(t, err)
	assert.False(t, sug.Available)

	_, desc, err := f.mgr.DescribeIntake(ctx, snap.ID)
	require.NoError(t, err)
	assert.Empty(t, desc)
}

func TestManager_DescribeIntake(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, req assistant.Request) (string, error) {
		return "Describes " + req.Prompt[:4], nil
	})
	f := newFixture(t, gen)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.OpenIntake(ctx, snap.ID)
	_, _ = f.mgr.UpdateIntake(ctx, snap.ID, IntakeUpdate{Name: ptr("DCMM")})

	_, desc, err := f.mgr.DescribeIntake(ctx, snap.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, desc)
}

func TestManager_ConcurrentTogglesOnOneWorkspace(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	snap, _ := f.mgr.Create(ctx)

	var wg sync.WaitGroup
	for _, id := range []string{"1", "2", "3"} {
		wg.Add(1)
		go func(docID string) {
			defer wg.Done()
			_, err := f.mgr.Toggle(ctx, snap.ID, docID)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	snap, err := f.mgr.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, snap.List.Selected)
	assert.True(t, snap.List.AllSelected)
}

func TestManager_ExpiredWorkspaceDiscardsStagedFile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	snap, err := f.mgr.Create(ctx)
	require.NoError(t, err)
	_, err = f.mgr.OpenIntake(ctx, snap.ID)
	require.NoError(t, err)
	staged := stagePDF(t, f, snap.ID)
	require.NotNil(t, staged.Intake.File)
	key := staged.Intake.File.Key
	require.True(t, f.objectExists(key))

	assert.Equal(t, 1, f.sessions.Sweep(time.Now().Add(2*time.Hour)))
	assert.False(t, f.objectExists(key), "abandoned upload is removed with its workspace")
	_, err = f.mgr.Get(ctx, snap.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestManager_ExpiryKeepsSubmittedFile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	snap, _ := f.mgr.Create(ctx)
	_, _ = f.mgr.OpenIntake(ctx, snap.ID)
	_, err := f.mgr.UpdateIntake(ctx, snap.ID, IntakeUpdate{Name: ptr("GB/T 1.1-2020")})
	require.NoError(t, err)
	stagePDF(t, f, snap.ID)
	_, doc, err := f.mgr.SubmitIntake(ctx, snap.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, f.sessions.Sweep(time.Now().Add(2*time.Hour)))
	assert.True(t, f.objectExists(doc.StoragePath))
}
