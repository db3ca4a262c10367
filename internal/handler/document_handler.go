package handler

import (
	"net/http"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// DocumentHandler handles document metadata and upload requests
type DocumentHandler struct {
	documentService *service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// AddDocumentRequest represents document metadata with externally hosted content
type AddDocumentRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// DocumentURLResponse carries a download URL for a document
type DocumentURLResponse struct {
	URL string `json:"url"`
}

// ListDocuments handles GET /spaces/:id/documents
func (h *DocumentHandler) ListDocuments(c echo.Context) error {
	docs, err := h.documentService.List(c.Param("id"))
	if err != nil {
		return handleServiceError(c, err, "list documents")
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return c.JSON(http.StatusOK, docs)
}

// AddDocument handles POST /spaces/:id/documents
func (h *DocumentHandler) AddDocument(c echo.Context) error {
	var req AddDocumentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	doc, err := h.documentService.Add(c.Request().Context(), c.Param("id"), domain.Document{
		Name: req.Name,
		Type: req.Type,
		Size: req.Size,
		URL:  req.URL,
	})
	if err != nil {
		return handleServiceError(c, err, "add document")
	}
	return c.JSON(http.StatusCreated, doc)
}

// CreateUpload handles POST /spaces/:id/documents/upload-url
func (h *DocumentHandler) CreateUpload(c echo.Context) error {
	var req service.UploadInput
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	result, err := h.documentService.CreateUpload(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return handleServiceError(c, err, "create upload url")
	}
	return c.JSON(http.StatusCreated, result)
}

// DownloadURL handles GET /spaces/:id/documents/:docId/url
func (h *DocumentHandler) DownloadURL(c echo.Context) error {
	u, err := h.documentService.DownloadURL(c.Request().Context(), c.Param("id"), c.Param("docId"))
	if err != nil {
		return handleServiceError(c, err, "get document url")
	}
	return c.JSON(http.StatusOK, DocumentURLResponse{URL: u})
}

// RemoveDocument handles DELETE /spaces/:id/documents/:docId
func (h *DocumentHandler) RemoveDocument(c echo.Context) error {
	if err := h.documentService.Remove(c.Request().Context(), c.Param("id"), c.Param("docId")); err != nil {
		return handleServiceError(c, err, "remove document")
	}
	return c.NoContent(http.StatusNoContent)
}
