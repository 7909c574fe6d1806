package handler

import (
	"net/http"
	"strings"

	"foodapp/internal/middleware"
	"foodapp/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, authed ...echo.MiddlewareFunc) {
	g := api.Group("/orders", authed...)

	g.POST("", h.create)
	g.GET("/myorders", h.myOrders)
	g.GET("/vendor", h.vendorOrders, middleware.VendorOnly())
	g.GET("/:id", h.detail)
	g.PUT("/:id/status", h.updateStatus, middleware.VendorOnly())
	g.PUT("/:id/cancel", h.cancel)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var in usecase.PlaceOrderInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	in.IdempotencyKey = idempotencyKey(c)

	res, err := h.uc.PlaceOrder(c.Request().Context(), userID, in)
	if err != nil {
		return writeError(c, err)
	}

	//同じキーの再送は既存の注文を200で返す
	status := http.StatusCreated
	if !res.Created {
		status = http.StatusOK
	}
	return c.JSON(status, res.Order)
}

func (h *OrderHandler) myOrders(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ListMyActiveOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) vendorOrders(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	//?status=&limit=&offset=
	var q usecase.VendorOrderQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}

	out, err := h.uc.ListVendorOrders(c.Request().Context(), userID, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.GetOrder(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var in usecase.UpdateOrderStatusInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), userID, c.Param("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Cancel(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func idempotencyKey(c echo.Context) string {
	if k := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key")); k != "" {
		return k
	}
	return strings.TrimSpace(c.Request().Header.Get("X-Idempotency-Key"))
}
