package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"stddocs/internal/model"
	"stddocs/internal/service"
)

const (
	defaultURLExpiry = 15 * time.Minute
	maxURLExpiry     = 7 * 24 * time.Hour
)

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

type batchDeleteResponse struct {
	Deleted int `json:"deleted"`
}

type fileURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// ListStandardTypes returns the classification table in display order.
//
// @Summary  List standard types
// @Tags     documents
// @Produce  json
// @Success  200 {object} map[string][]model.TypeInfo
// @Router   /standard-types [get]
func ListStandardTypes() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": model.Types()})
	}
}

// ListDocuments returns documents matching ?search, newest first. limit=0 returns every match.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    search query string false "case-insensitive match on name or creator"
// @Param    limit  query int    false "page size, 0 for all" default(0)
// @Param    offset query int    false "page offset"          default(0)
// @Success  200 {object} service.DocumentListResult
// @Failure  400 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil || limit < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil || offset < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), service.ListQuery{
			Search: c.Query("search"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument creates a document from one multipart request.
//
// @Summary  Upload a standard document
// @Tags     documents
// @Accept   multipart/form-data
// @Produce  json
// @Param    name    formData string true  "document name, 1-128 characters"
// @Param    type    formData string false "NATIONAL, INDUSTRY or REGIONAL" default(NATIONAL)
// @Param    creator formData string false "creator display name"
// @Param    file    formData file   true  "rar, zip, doc, docx or pdf up to 10MB"
// @Success  201 {object} model.StandardDocument
// @Failure  400 {object} errorPayload
// @Failure  413 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /documents [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		t := model.StandardTypeNational
		if raw := strings.TrimSpace(c.FormValue("type")); raw != "" {
			if t, err = model.ParseStandardType(raw); err != nil {
				return writeServiceError(c, err)
			}
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

		doc, err := docSvc.Upload(c.UserContext(), service.UploadInput{
			Name:        c.FormValue("name"),
			Type:        t,
			Creator:     c.FormValue("creator"),
			FileName:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			Body:        f,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns one document by ID.
//
// @Summary  Get a document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {object} model.StandardDocument
// @Failure  404 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := docSvc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocumentFile streams the stored file as an attachment.
//
// @Summary  Download a document file
// @Tags     documents
// @Produce  octet-stream
// @Param    id path string true "document id"
// @Success  200 {file} file
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/file [get]
func DownloadDocumentFile(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, doc, err := docSvc.OpenFile(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Attachment(doc.FileName)
		if doc.ContentType != "" {
			c.Set(fiber.HeaderContentType, doc.ContentType)
		}
		// fasthttp closes rc once the body has been written.
		if doc.FileSize > 0 {
			return c.SendStream(rc, int(doc.FileSize))
		}
		return c.SendStream(rc)
	}
}

// DocumentFileURL returns a presigned download URL valid for ?expires seconds.
//
// @Summary  Presigned file URL
// @Tags     documents
// @Produce  json
// @Param    id      path  string true  "document id"
// @Param    expires query int    false "lifetime in seconds" default(900)
// @Success  200 {object} fileURLResponse
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Failure  501 {object} errorPayload
// @Router   /documents/{id}/file-url [get]
func DocumentFileURL(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		expiry := defaultURLExpiry
		if raw := c.Query("expires"); raw != "" {
			sec, err := strconv.Atoi(raw)
			if err != nil || sec <= 0 || time.Duration(sec)*time.Second > maxURLExpiry {
				return writeError(c, fiber.StatusBadRequest, "INVALID_EXPIRY", "expires must be between 1 and 604800 seconds")
			}
			expiry = time.Duration(sec) * time.Second
		}

		u, err := docSvc.FileURL(c.UserContext(), c.Params("id"), expiry)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fileURLResponse{URL: u, ExpiresIn: int(expiry / time.Second)})
	}
}

// DeleteDocument removes one document and its stored file.
//
// @Summary  Delete a document
// @Tags     documents
// @Param    id path string true "document id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /documents/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := docSvc.Delete(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		if n == 0 {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// BatchDeleteDocuments removes every listed document. Unknown IDs are skipped.
//
// @Summary  Delete several documents
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    body body     batchDeleteRequest true "ids to delete"
// @Success  200  {object} batchDeleteResponse
// @Failure  400  {object} errorPayload
// @Failure  500  {object} errorPayload
// @Router   /documents/batch-delete [post]
func BatchDeleteDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req batchDeleteRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if len(req.IDs) == 0 {
			return writeError(c, fiber.StatusBadRequest, "IDS_REQUIRED", "ids are required")
		}

		n, err := docSvc.Delete(c.UserContext(), req.IDs...)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(batchDeleteResponse{Deleted: n})
	}
}
