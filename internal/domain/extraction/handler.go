package extraction

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clindoc/clindoc/internal/domain/header"
	"github.com/clindoc/clindoc/internal/platform/cda"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/documents/process", h.ProcessDocument)
}

// ProcessResponse wraps the pipeline result with the administrative header
// block when the document was structured.
type ProcessResponse struct {
	*ProcessingResult
	Administrative *header.Administrative `json:"administrative,omitempty"`
}

func (h *Handler) ProcessDocument(c echo.Context) error {
	var req ProcessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	if req.Language == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "language is required")
	}

	ctx := c.Request().Context()
	result := h.svc.Process(ctx, req)

	resp := ProcessResponse{ProcessingResult: result}
	if result.Success && cda.Classify(req.Content) == cda.KindStructured {
		if doc, err := cda.Parse(req.Content); err == nil {
			resp.Administrative = header.Extract(doc)
		}
	}
	return c.JSON(http.StatusOK, resp)
}
