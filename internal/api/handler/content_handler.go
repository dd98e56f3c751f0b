package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
)

// ContentHandler serves the operator content editor.
type ContentHandler struct {
	service ports.ContentService
}

func NewContentHandler(service ports.ContentService) *ContentHandler {
	return &ContentHandler{service: service}
}

// Get returns the section bodies of a page in one language.
//
// @Summary      Get page content
// @Tags         content
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     string  false  "Page key"      default(index)
// @Param        lang  query     string  false  "Language code" default(en)
// @Success      200   {object}  contentResponse
// @Failure      401   {object}  messageResponse
// @Router       /api/content [get]
func (h *ContentHandler) Get(c echo.Context) error {
	content, err := h.service.Get(c.Request().Context(), c.QueryParam("page"), c.QueryParam("lang"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contentResponse{Success: true, Content: content})
}

// Upsert writes every section in the body, overwriting existing bodies.
//
// @Summary      Update page content
// @Tags         content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      contentUpdateRequest  true  "Sections to write"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Router       /api/content [post]
func (h *ContentHandler) Upsert(c echo.Context) error {
	var req contentUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.service.Upsert(c.Request().Context(), domain.ContentUpdate{
		PageKey:      req.Page,
		LanguageCode: req.Lang,
		Editor:       req.ModifiedBy,
		Sections:     req.Content,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Content updated successfully"))
}
