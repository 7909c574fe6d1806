package handler

import (
	"net/http"

	"foodapp/internal/middleware"
	"foodapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/vendors/:vendorId/categories（ベンダー本人だけ）
type CategoryHandler struct {
	uc *usecase.CategoryUsecase
}

// DI
func NewCategoryHandler(uc *usecase.CategoryUsecase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

func (h *CategoryHandler) RegisterRoutes(api *echo.Group, authed ...echo.MiddlewareFunc) {
	g := api.Group("/vendors/:vendorId/categories", authed...)
	g.Use(middleware.VendorOnly())

	g.GET("", h.list)
	g.POST("", h.create)
	g.DELETE("/:categoryId", h.delete)
}

func (h *CategoryHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	vendorID, ok := int64Param(c, "vendorId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vendor id"})
	}

	cs, err := h.uc.List(c.Request().Context(), userID, vendorID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *CategoryHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	vendorID, ok := int64Param(c, "vendorId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vendor id"})
	}

	var in usecase.CreateCategoryInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&in); err != nil {
		return writeError(c, err)
	}

	cat, err := h.uc.Create(c.Request().Context(), userID, vendorID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	vendorID, ok := int64Param(c, "vendorId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vendor id"})
	}
	categoryID, ok := int64Param(c, "categoryId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid category id"})
	}

	if err := h.uc.Delete(c.Request().Context(), userID, vendorID, categoryID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Category and associated menu items deleted"})
}
