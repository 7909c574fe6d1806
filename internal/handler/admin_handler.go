package handler

import (
	"net/http"

	"foodapp/internal/middleware"
	"foodapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	uc *usecase.AdminUsecase
}

func NewAdminHandler(uc *usecase.AdminUsecase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

func (h *AdminHandler) RegisterRoutes(api *echo.Group, authed ...echo.MiddlewareFunc) {
	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := api.Group("/admin", authed...)
	admin.Use(middleware.AdminOnly())

	admin.POST("/users/:id/wallet/credit", h.creditWallet)
	admin.POST("/users/:id/force-logout", h.forceLogout)
}

func (h *AdminHandler) creditWallet(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	userID, ok := int64Param(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	var in usecase.CreditWalletInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreditWallet(c.Request().Context(), adminID, userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) forceLogout(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	userID, ok := int64Param(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	out, err := h.uc.ForceLogout(c.Request().Context(), adminID, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
