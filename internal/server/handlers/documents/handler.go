package documents

import (
	"errors"
	"fmt"

	"github.com/crudster/crudster/internal/documents"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Handler struct {
	documentsSvc *documents.Service

	logger *zap.Logger
}

func NewHandler(documentsSvc *documents.Service, logger *zap.Logger) handler.Handler {
	return &Handler{
		documentsSvc: documentsSvc,

		logger: logger,
	}
}

// Register implements handler.Handler.
//
// The guid route constraint makes a malformed identifier a routing
// mismatch: no route matches, so the router answers 404 before the
// handler ever runs.
func (h *Handler) Register(r fiber.Router) {
	r.Use(h.errorsHandler)
	r.Post("/", h.post)
	r.Post("/:id", h.postWithID)
	r.Get("/", h.list)
	r.Get("/:id<guid>", h.get)
	r.Put("/", h.putWithoutID)
	r.Put("/:id<guid>", h.put)
	r.Delete("/", h.deleteWithoutID)
	r.Delete("/:id<guid>", h.delete)
}

// Store a new document.
func (h *Handler) post(c *fiber.Ctx) error {
	body, err := decodeDocument(c)
	if err != nil {
		return err
	}

	doc, err := h.documentsSvc.Create(c.Context(), body)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return respondJSON(c, CreateResponse{ID: doc.ID})
}

// The server assigns document IDs, never the client.
func (h *Handler) postWithID(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusBadRequest, "document ID is assigned by the server")
}

// Retrieve all documents, keyed by their canonical identifier.
func (h *Handler) list(c *fiber.Ctx) error {
	docs, err := h.documentsSvc.List(c.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	response := lo.SliceToMap(docs, func(doc documents.Document) (string, ListEntry) {
		return doc.ID.String(), ListEntry(doc.Body)
	})

	return respondJSON(c, response)
}

// Retrieve one document, unwrapped.
func (h *Handler) get(c *fiber.Ctx) error {
	id, err := getDocumentID(c)
	if err != nil {
		return err
	}

	doc, err := h.documentsSvc.Get(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(doc.Body)
}

// Replace the whole document at id.
func (h *Handler) put(c *fiber.Ctx) error {
	id, err := getDocumentID(c)
	if err != nil {
		return err
	}

	body, err := decodeDocument(c)
	if err != nil {
		return err
	}

	if err := h.documentsSvc.Replace(c.Context(), id, body); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}

	return respondJSON(c, struct{}{})
}

func (h *Handler) putWithoutID(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusBadRequest, "document ID is required")
}

// Delete the document at id.
func (h *Handler) delete(c *fiber.Ctx) error {
	id, err := getDocumentID(c)
	if err != nil {
		return err
	}

	if err := h.documentsSvc.Delete(c.Context(), id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return respondJSON(c, struct{}{})
}

func (h *Handler) deleteWithoutID(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusBadRequest, "document ID is required")
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, documents.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, documents.ErrInvalidDocument):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, documents.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}
