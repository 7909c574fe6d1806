package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"foodapp/internal/middleware"
	"foodapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/vendors/:vendorId/menu
type MenuHandler struct {
	uc *usecase.MenuUsecase
}

// DI
func NewMenuHandler(uc *usecase.MenuUsecase) *MenuHandler {
	return &MenuHandler{uc: uc}
}

func (h *MenuHandler) RegisterRoutes(api *echo.Group, authed ...echo.MiddlewareFunc) {
	g := api.Group("/vendors/:vendorId/menu")
	g.GET("", h.list)

	vendorOnly := append(append([]echo.MiddlewareFunc{}, authed...), middleware.VendorOnly())
	g.POST("", h.create, vendorOnly...)
	g.PUT("/:itemId", h.update, vendorOnly...)
	g.DELETE("/:itemId", h.delete, vendorOnly...)
}

func (h *MenuHandler) list(c echo.Context) error {
	vendorID, ok := int64Param(c, "vendorId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vendor id"})
	}

	items, err := h.uc.List(c.Request().Context(), vendorID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// multipart（image は任意）
func (h *MenuHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	vendorID, ok := int64Param(c, "vendorId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vendor id"})
	}

	form, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid form"})
	}
	image, closeImage, err := openImage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid image"})
	}
	defer closeImage()

	in := usecase.MenuItemInput{
		Name:        form.Get("name"),
		Description: form.Get("description"),
		Price:       form.Get("price"),
		Category:    form.Get("category"),
		Type:        form.Get("type"),
		Ingredients: form.Get("ingredients"),
		Available:   optionalBool(form, "available"),
		Image:       image,
	}

	item, err := h.uc.Create(c.Request().Context(), userID, vendorID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// 送られてきた項目だけ更新
func (h *MenuHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	vendorID, ok := int64Param(c, "vendorId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vendor id"})
	}
	itemID, ok := int64Param(c, "itemId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid menu item id"})
	}

	form, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid form"})
	}
	image, closeImage, err := openImage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid image"})
	}
	defer closeImage()

	patch := usecase.MenuItemPatch{
		Name:        optionalString(form, "name"),
		Description: optionalString(form, "description"),
		Price:       optionalString(form, "price"),
		Category:    optionalString(form, "category"),
		Type:        optionalString(form, "type"),
		Ingredients: optionalString(form, "ingredients"),
		Available:   optionalBool(form, "available"),
		Image:       image,
	}

	item, err := h.uc.Update(c.Request().Context(), userID, vendorID, itemID, patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	vendorID, ok := int64Param(c, "vendorId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vendor id"})
	}
	itemID, ok := int64Param(c, "itemId")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid menu item id"})
	}

	if err := h.uc.Delete(c.Request().Context(), userID, vendorID, itemID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Menu item deleted"})
}

func openImage(c echo.Context) (*usecase.ImageUpload, func(), error) {
	fh, err := formFile(c, "image")
	if err != nil || fh == nil {
		return nil, func() {}, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return uploadFrom(fh, f), func() { _ = f.Close() }, nil
}

func uploadFrom(fh *multipart.FileHeader, r io.Reader) *usecase.ImageUpload {
	return &usecase.ImageUpload{Filename: fh.Filename, Size: fh.Size, Content: r}
}

func optionalString(form url.Values, key string) *string {
	vs, ok := form[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}

func optionalBool(form url.Values, key string) *bool {
	s := optionalString(form, key)
	if s == nil {
		return nil
	}
	b, err := strconv.ParseBool(*s)
	if err != nil {
		return nil
	}
	return &b
}
