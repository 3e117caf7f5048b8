package handler

import (
	"github.com/gofiber/fiber/v2"

	"stddocs/internal/assistant"
	"stddocs/internal/service"
	"stddocs/internal/workspace"
)

// Deps carries everything the routes need. Nil optional fields disable their routes:
// Workspaces gates /sessions, and a nil Assistant answers with no result.
type Deps struct {
	Documents  service.DocumentService
	Workspaces *workspace.Manager
	Assistant  *assistant.Assistant
	// Checks are pinged by /health.
	Checks []Pinger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", HealthCheck(deps.Checks...))
	app.Get("/healthz", LivenessProbe())

	app.Get("/standard-types", ListStandardTypes())

	docs := deps.Documents
	app.Get("/documents", ListDocuments(docs))
	app.Post("/documents", UploadDocument(docs))
	app.Post("/documents/batch-delete", BatchDeleteDocuments(docs))
	app.Get("/documents/:id", GetDocument(docs))
	app.Get("/documents/:id/file", DownloadDocumentFile(docs))
	app.Get("/documents/:id/file-url", DocumentFileURL(docs))
	app.Delete("/documents/:id", DeleteDocument(docs))

	app.Post("/assistant/suggest-type", SuggestType(deps.Assistant))
	app.Post("/assistant/describe", DescribeDocument(deps.Assistant))

	if deps.Workspaces == nil {
		return
	}
	m := deps.Workspaces
	s := app.Group("/sessions")
	s.Post("/", CreateSession(m))
	s.Get("/:sid", GetSession(m))
	s.Delete("/:sid", CloseSession(m))
	s.Put("/:sid/search", SetSearch(m))
	s.Post("/:sid/selection", SelectAll(m))
	s.Delete("/:sid/selection", ClearSelection(m))
	s.Post("/:sid/selection/delete", DeleteSelected(m))
	s.Post("/:sid/selection/:id/toggle", ToggleSelection(m))
	s.Delete("/:sid/documents/:id", DeleteFromSession(m))
	s.Patch("/:sid/intake", UpdateIntake(m))
	s.Post("/:sid/intake/open", OpenIntake(m))
	s.Post("/:sid/intake/close", CloseIntake(m))
	s.Post("/:sid/intake/submit", SubmitIntake(m))
	s.Put("/:sid/intake/file", StageIntakeFile(m))
	s.Delete("/:sid/intake/file", RemoveIntakeFile(m))
	s.Post("/:sid/intake/suggest", SuggestIntakeType(m))
	s.Post("/:sid/intake/describe", DescribeIntake(m))
}
