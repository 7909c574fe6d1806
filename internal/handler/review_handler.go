package handler

import (
	"net/http"

	"foodapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/reviews/:vendorId
type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

func (h *ReviewHandler) RegisterRoutes(api *echo.Group, authed ...echo.MiddlewareFunc) {
	api.GET("/reviews/:vendorId", h.list)
	api.POST("/reviews/:vendorId", h.create, authed...)
}

func (h *ReviewHandler) list(c echo.Context) error {
	vendorID, ok := int64Param(c, "vendorId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid Vendor ID"})
	}

	rs, err := h.uc.List(c.Request().Context(), vendorID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *ReviewHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	vendorID, ok := int64Param(c, "vendorId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid Vendor ID"})
	}

	var in usecase.CreateReviewInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	r, err := h.uc.Create(c.Request().Context(), userID, vendorID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}
