package server

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Reason     string `json:"reason"`
}

// NewErrorHandler builds the top-level fiber error handler. Client errors
// keep their message as the reason; server errors get the generic status
// text so internals never leak, unless debug mode trades the JSON body for
// a plain-text trace.
func NewErrorHandler(config Config, logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		reason := ""

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			reason = fiberErr.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", zap.Int("status", code), zap.Error(err))

			if config.Debug {
				trace := fmt.Sprintf("%+v\n\n%s", err, debug.Stack())
				return c.Status(code).Type("txt", "utf-8").SendString(trace)
			}

			reason = utils.StatusMessage(code)
		}

		if reason == "" {
			reason = utils.StatusMessage(code)
		}

		if jsonErr := c.Status(code).JSON(ErrorResponse{StatusCode: code, Reason: reason}); jsonErr != nil {
			return jsonErr
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)

		return nil
	}
}
