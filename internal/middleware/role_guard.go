package middleware

import (
	"net/http"

	"foodapp/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextに入っているroleが許可されたものか確認します。
func RoleGuard(allowed ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			for _, r := range allowed {
				if model.Role(role) == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
		}
	}
}

func AdminOnly() echo.MiddlewareFunc {
	return RoleGuard(model.RoleAdmin)
}

func VendorOnly() echo.MiddlewareFunc {
	return RoleGuard(model.RoleVendor)
}
