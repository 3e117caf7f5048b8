package handler

import (
	"github.com/gofiber/fiber/v2"

	"stddocs/internal/assistant"
	"stddocs/internal/intake"
	"stddocs/internal/model"
	"stddocs/internal/upload"
	"stddocs/internal/workspace"
)

type searchRequest struct {
	Term string `json:"term"`
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

type intakeUpdateRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

type deleteResponse struct {
	workspace.DeleteOutcome
	Workspace workspace.Snapshot `json:"workspace"`
}

type submitResponse struct {
	Document  *model.StandardDocument `json:"document"`
	Workspace workspace.Snapshot      `json:"workspace"`
}

type suggestResponse struct {
	Suggestion assistant.Suggestion `json:"suggestion"`
	Workspace  workspace.Snapshot   `json:"workspace"`
}

type describeIntakeResponse struct {
	Description string             `json:"description"`
	Workspace   workspace.Snapshot `json:"workspace"`
}

// snapshotHandler covers the workspace operations that take only the session ID.
func snapshotHandler(op func(c *fiber.Ctx, sid string) (workspace.Snapshot, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := op(c, c.Params("sid"))
		if err != nil {
			return writeWorkspaceError(c, snap, err)
		}
		return c.JSON(snap)
	}
}

// CreateSession starts a new workspace with an empty search and a closed form.
//
// @Summary  Create a workspace
// @Tags     sessions
// @Produce  json
// @Success  201 {object} workspace.Snapshot
// @Failure  500 {object} errorPayload
// @Router   /sessions [post]
func CreateSession(m *workspace.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := m.Create(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(snap)
	}
}

// GetSession renders the workspace against the current documents.
//
// @Summary  Get a workspace
// @Tags     sessions
// @Produce  json
// @Param    sid path string true "workspace id"
// @Success  200 {object} workspace.Snapshot
// @Failure  404 {object} errorPayload
// @Router   /sessions/{sid} [get]
func GetSession(m *workspace.Manager) fiber.Handler {
	return snapshotHandler(func(c *fiber.Ctx, sid string) (workspace.Snapshot, error) {
		return m.Get(c.UserContext(), sid)
	})
}

// CloseSession discards the workspace and any file staged on its form.
//
// @Summary  Discard a workspace
// @Tags     sessions
// @Param    sid path string true "workspace id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Router   /sessions/{sid} [delete]
func CloseSession(m *workspace.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := m.Close(c.UserContext(), c.Params("sid")); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SetSearch replaces the search term. The selection is kept.
//
// @Summary  Set the search term
// @Tags     sessions
// @Accept   json
// @Produce  json
// @Param    sid  path     string        true "workspace id"
// @Param    body body     searchRequest true "search term"
// @Success  200  {object} workspace.Snapshot
// @Failure  400  {object} errorPayload
// @Failure  404  {object} errorPayload
// @Router   /sessions/{sid}/search [put]
func SetSearch(m *workspace.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		snap, err := m.SetSearch(c.UserContext(), c.Params("sid"), req.Term)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(snap)
	}
}

// SelectAll selects every document currently visible.
//
// @Summary  Select all visible documents
// @Tags     sessions
// @Produce  json
// @Param    sid path string true "workspace id"
// @Success  200 {object} workspace.Snapshot
// @Failure  404 {object} errorPayload
// @Router   /sessions/{sid}/selection [post]
func SelectAll(m *workspace.Manager) fiber.Handler {
	return snapshotHandler(func(c *fiber.Ctx, sid string) (workspace.Snapshot, error) {
		return m.SelectAll(c.UserContext(), sid)
	})
}

// ClearSelection deselects everything.
//
// @Summary  Clear the selection
// @Tags     sessions
// @Produce  json
// @Param    sid path string true "workspace id"
// @Success  200 {object} workspace.Snapshot
// @Failure  404 {object} errorPayload
// @Router   /sessions/{sid}/selection [delete]
func ClearSelection(m *workspace.Manager) fiber.Handler {
	return snapshotHandler(func(c *fiber.Ctx, sid string) (workspace.Snapshot, error) {
		return m.ClearSelection(c.UserContext(), sid)
	})
}

// ToggleSelection flips the selection of one document.
//
// @Summary  Toggle one document
// @Tags     sessions
// @Produce  json
// @Param    sid path string true "workspace id"
// @Param    id  path string true "document id"
// @Success  200 {object} workspace.Snapshot
// @Failure  404 {object} errorPayload
// @Router   /sessions/{sid}/selection/{id}/toggle [post]
func ToggleSelection(m *workspace.Manager) fiber.Handler {
	return snapshotHandler(func(c *fiber.Ctx, sid string) (workspace.Snapshot, error) {
		return m.Toggle(c.UserContext(), sid, c.Params("id"))
	})
}

// DeleteSelected removes every selected document once confirmed.
// Without confirm the response carries the prompt and nothing is removed.
//
// @Summary  Delete the selection
// @Tags     sessions
// @Accept   json
// @Produce  json
// @Param    sid  path     string         true "workspace id"
// @Param    body body     confirmRequest true "confirmation"
// @Success  200  {object} deleteResponse
// @Failure  400  {object} errorPayload
// @Failure  404  {object} errorPayload
// @Router   /sessions/{sid}/selection/delete [post]
func DeleteSelected(m *workspace.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req confirmRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
		}
		snap, out, err := m.DeleteSelected(c.UserContext(), c.Params("sid"), req.Confirm)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(deleteResponse{DeleteOutcome: out, Workspace: snap})
	}
}

// DeleteFromSession removes one document once ?confirm=true is given.
//
// @Summary  Delete one document
// @Tags     sessions
// @Produce  json
// @Param    sid     path  string true  "workspace id"
// @Param    id      path  string true  "document id"
// @Param    confirm query bool   false "confirm the deletion"
// @Success  200 {object} deleteResponse
// @Failure  404 {object} errorPayload
// @Router   /sessions/{sid}/documents/{id} [delete]
func DeleteFromSession(m *workspace.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, out, err := m.DeleteOne(c.UserContext(), c.Params("sid"), c.Params("id"), c.QueryBool("confirm"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(deleteResponse{DeleteOutcome: out, Workspace: snap})
	}
}

// OpenIntake opens a fresh creation form.
//
// @Summary  Open the creation form
// @Tags     intake
// @Produce  json
// @Param    sid path string true "workspace id"
// @Success  200 {object} workspace.Snapshot
// @Failure  404 {object} errorPayload
// @Router   /sessions/{sid}/intake/open [post]
func OpenIntake(m *workspace.Manager) fiber.Handler {
	return snapshotHandler(func(c *fiber.Ctx, sid string) (workspace.Snapshot, error) {
		return m.OpenIntake(c.UserContext(), sid)
	})
}

// CloseIntake cancels the form and drops any staged file.
//
// @Summary  Cancel the creation form
// @Tags     intake
// @Produce  json
// @Param    sid path string true "workspace id"
// @Success  200 {object} workspace.Snapshot
// @Failure  404 {object} errorPayload
// @Router   /sessions/{sid}/intake/close [post]
func CloseIntake(m *workspace.Manager) fiber.Handler {
	return snapshotHandler(func(c *fiber.Ctx, sid string) (workspace.Snapshot, error) {
		return m.CloseIntake(c.UserContext(), sid)
	})
}

// UpdateIntake edits the form name and type. Omitted fields are left alone.
//
// @Summary  Edit the creation form
// @Tags     intake
// @Accept   json
// @Produce  json
// @Param    sid  path     string              true "workspace id"
// @Param    body body     intakeUpdateRequest true "fields to change"
// @Success  200  {object} workspace.Snapshot
// @Failure  400  {object} errorPayload
// @Failure  409  {object} errorPayload
// @Router   /sessions/{sid}/intake [patch]
func UpdateIntake(m *workspace.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req intakeUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		snap, err := m.UpdateIntake(c.UserContext(), c.Params("sid"), workspace.IntakeUpdate{Name: req.Name, Type: req.Type})
		if err != nil {
			return writeWorkspaceError(c, snap, err)
		}
		return c.JSON(snap)
	}
}

// StageIntakeFile validates and stages the form file. A rejected file leaves
// the reason on the form and the previous file removed.
//
// @Summary  Attach a file to the form
// @Tags     intake
// @Accept   multipart/form-data
// @Produce  json
// @Param    sid    path     string true  "workspace id"
// @Param    file   formData file   true  "rar, zip, doc, docx or pdf up to 10MB"
// @Param    source formData string false "picker or drop" default(picker)
// @Success  200 {object} workspace.Snapshot
// @Failure  400 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Failure  413 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Router   /sessions/{sid}/intake/file [put]
func StageIntakeFile(m *workspace.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		src, err := intake.ParseSource(c.FormValue("source"))
		if err != nil {
			return writeServiceError(c, err)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		snap, err := m.StageIntakeFile(c.UserContext(), c.Params("sid"), src,
			upload.File{Name: fh.Filename, Size: fh.Size}, f, ct)
		if err != nil {
			return writeWorkspaceError(c, snap, err)
		}
		return c.JSON(snap)
	}
}

// RemoveIntakeFile drops the staged file from the form.
//
// @Summary  Remove the form file
// @Tags     intake
// @Produce  json
// @Param    sid path string true "workspace id"
// @Success  200 {object} workspace.Snapshot
// @Failure  409 {object} errorPayload
// @Router   /sessions/{sid}/intake/file [delete]
func RemoveIntakeFile(m *workspace.Manager) fiber.Handler {
	return snapshotHandler(func(c *fiber.Ctx, sid string) (workspace.Snapshot, error) {
		return m.RemoveIntakeFile(c.UserContext(), sid)
	})
}

// SubmitIntake creates the document described by the form and closes it.
//
// @Summary  Submit the creation form
// @Tags     intake
// @Produce  json
// @Param    sid path string true "workspace id"
// @Success  201 {object} submitResponse
// @Failure  409 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /sessions/{sid}/intake/submit [post]
func SubmitIntake(m *workspace.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, doc, err := m.SubmitIntake(c.UserContext(), c.Params("sid"))
		if err != nil {
			return writeWorkspaceError(c, snap, err)
		}
		return c.Status(fiber.StatusCreated).JSON(submitResponse{Document: doc, Workspace: snap})
	}
}

// SuggestIntakeType classifies the form name. With ?apply=true a suggestion
// is written to the form if the name did not change meanwhile.
//
// @Summary  Suggest the form type
// @Tags     intake
// @Produce  json
// @Param    sid   path  string true  "workspace id"
// @Param    apply query bool   false "apply the suggestion to the form"
// @Success  200 {object} suggestResponse
// @Failure  404 {object} errorPayload
// @Router   /sessions/{sid}/intake/suggest [post]
func SuggestIntakeType(m *workspace.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, s, err := m.SuggestIntakeType(c.UserContext(), c.Params("sid"), c.QueryBool("apply"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(suggestResponse{Suggestion: s, Workspace: snap})
	}
}

// DescribeIntake generates a description for the form name.
//
// @Summary  Describe the form document
// @Tags     intake
// @Produce  json
// @Param    sid path string true "workspace id"
// @Success  200 {object} describeIntakeResponse
// @Failure  404 {object} errorPayload
// @Router   /sessions/{sid}/intake/describe [post]
func DescribeIntake(m *workspace.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, text, err := m.DescribeIntake(c.UserContext(), c.Params("sid"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(describeIntakeResponse{Description: text, Workspace: snap})
	}
}
