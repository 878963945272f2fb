package documents

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

func getDocumentID(c *fiber.Ctx) (uuid.UUID, error) {
	idParam := c.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return uuid.UUID{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return id, nil
}

// decodeDocument pulls the raw JSON body out of the request, checking
// well-formedness only. The body stays opaque to the rest of the system.
func decodeDocument(c *fiber.Ctx) (json.RawMessage, error) {
	body := c.Body()
	if !json.Valid(body) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "request body is not well-formed JSON")
	}

	// Detach from fiber's reusable request buffer.
	return json.RawMessage(utils.CopyBytes(body)), nil
}

func respondJSON(c *fiber.Ctx, value any) error {
	if err := c.JSON(value); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)

	return nil
}
