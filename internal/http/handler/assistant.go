package handler

import (
	"github.com/gofiber/fiber/v2"

	"stddocs/internal/assistant"
)

type assistantRequest struct {
	Name string `json:"name"`
}

type describeResponse struct {
	Description string `json:"description"`
}

// SuggestType asks the assistant to classify a document name.
// An unreachable or undecided assistant answers 200 with available=false.
//
// @Summary  Suggest a standard type
// @Tags     assistant
// @Accept   json
// @Produce  json
// @Param    body body     assistantRequest true "document name"
// @Success  200  {object} assistant.Suggestion
// @Failure  400  {object} errorPayload
// @Router   /assistant/suggest-type [post]
func SuggestType(asst *assistant.Assistant) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req assistantRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		return c.JSON(asst.SuggestStandardType(c.UserContext(), req.Name))
	}
}

// DescribeDocument asks the assistant for a short description of a document name.
// The description is empty when nothing could be generated.
//
// @Summary  Describe a document
// @Tags     assistant
// @Accept   json
// @Produce  json
// @Param    body body     assistantRequest true "document name"
// @Success  200  {object} describeResponse
// @Failure  400  {object} errorPayload
// @Router   /assistant/describe [post]
func DescribeDocument(asst *assistant.Assistant) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req assistantRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		return c.JSON(describeResponse{Description: asst.GenerateDescription(c.UserContext(), req.Name)})
	}
}
