package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"foodapp/internal/domain/model"
	"foodapp/internal/infra/storage"
	auth "foodapp/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// /api/users
type UserHandler struct {
	registerUC *auth.RegisterUserUsecase
	loginUC    *auth.LoginUsecase
	logoutUC   *auth.LogoutUsecase
	profileUC  *auth.ProfileUsecase
}

// DI
func NewUserHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	logoutUC *auth.LogoutUsecase,
	profileUC *auth.ProfileUsecase,
) *UserHandler {
	return &UserHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
		logoutUC:   logoutUC,
		profileUC:  profileUC,
	}
}

type LogoutResponse struct {
	Message         string `json:"message"`
	NewTokenVersion int    `json:"new_token_version"`
}

func (h *UserHandler) RegisterRoutes(api *echo.Group, authed ...echo.MiddlewareFunc) {
	g := api.Group("/users")

	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.GET("/vendors", h.vendors)
	g.GET("/vendors/:id", h.vendor)

	g.POST("/logout", h.logout, authed...)
	g.GET("/profile", h.profile, authed...)
}

// ユーザーはJSON、ベンダーは multipart（userData にJSON、photo に画像）
func (h *UserHandler) register(c echo.Context) error {
	var in auth.RegisterUserInput

	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		if err := json.Unmarshal([]byte(c.FormValue("userData")), &in); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid userData"})
		}

		fh, err := formFile(c, "photo")
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid photo"})
		}
		if fh != nil {
			f, err := fh.Open()
			if err != nil {
				return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid photo"})
			}
			defer f.Close()
			in.Photo = &auth.PhotoUpload{Filename: fh.Filename, Size: fh.Size, Content: f}
		}
	} else if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.registerUC.Execute(c.Request().Context(), in)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *UserHandler) login(c echo.Context) error {
	var in auth.LoginInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), in)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) logout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	tv, err := h.logoutUC.Execute(c.Request().Context(), userID)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, LogoutResponse{Message: "Logged out", NewTokenVersion: tv})
}

func (h *UserHandler) profile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	u, err := h.profileUC.Me(c.Request().Context(), userID)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) vendors(c echo.Context) error {
	vs, err := h.profileUC.Vendors(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	if vs == nil {
		vs = []model.User{}
	}
	return c.JSON(http.StatusOK, vs)
}

func (h *UserHandler) vendor(c echo.Context) error {
	id, ok := int64Param(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid Vendor ID"})
	}

	v, err := h.profileUC.Vendor(c.Request().Context(), id)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// authパッケージのエラーをステータスに振り分ける
func writeAuthError(c echo.Context, err error) error {
	status, msg := http.StatusInternalServerError, ""
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		status, msg = http.StatusBadRequest, "Please provide all required fields"
	case errors.Is(err, auth.ErrInvalidEmailFormat):
		status, msg = http.StatusBadRequest, "Invalid email format"
	case errors.Is(err, auth.ErrPasswordTooShort):
		status, msg = http.StatusBadRequest, "Password must be at least 8 characters"
	case errors.Is(err, auth.ErrWeakPassword):
		status, msg = http.StatusBadRequest, "Password is too weak"
	case errors.Is(err, auth.ErrInvalidRole):
		status, msg = http.StatusBadRequest, "Invalid role"
	case errors.Is(err, auth.ErrVendorDetails):
		status, msg = http.StatusBadRequest, "Please provide all vendor details"
	case errors.Is(err, auth.ErrPhotoRequired):
		status, msg = http.StatusBadRequest, "Restaurant photo is required"
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		status, msg = http.StatusBadRequest, "User already exists"
	case errors.Is(err, storage.ErrUnsupportedImage):
		status, msg = http.StatusBadRequest, "Only image files are allowed!"
	case errors.Is(err, storage.ErrImageTooLarge):
		status, msg = http.StatusBadRequest, "Image must be 5MB or smaller"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, auth.ErrUserNotFound):
		status, msg = http.StatusNotFound, "User not found"
	case errors.Is(err, auth.ErrVendorNotFound):
		status, msg = http.StatusNotFound, "Vendor not found"
	}
	if msg == "" {
		return writeError(c, err)
	}
	return c.JSON(status, ErrorResponse{Error: msg})
}
