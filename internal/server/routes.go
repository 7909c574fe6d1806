package server

import (
	"net/http"

	"foodapp/internal/handler"
	"foodapp/internal/infra/repository"
	"foodapp/internal/infra/storage"
	"foodapp/internal/middleware"
	"foodapp/internal/usecase"
	auth "foodapp/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// repository → usecase → handler の順に組み立ててルートを登録する
func registerRoutes(e *echo.Echo, d Deps) {
	cfg := d.Config

	//Repository（GORM実装）生成
	userRepo := repository.NewUserGormRepository(d.DB)
	menuRepo := repository.NewMenuItemGormRepository(d.DB)
	categoryRepo := repository.NewCategoryGormRepository(d.DB)
	orderRepo := repository.NewOrderGormRepository(d.DB)
	reviewRepo := repository.NewReviewGormRepository(d.DB)
	txm := repository.NewTxManagerGorm(d.DB)

	images := storage.NewLocalImageStore(cfg.UploadDir)

	//JWT と bcrypt
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, images, issuer, d.Clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, d.Clock)
	logoutUC := auth.NewLogoutUsecase(userRepo)
	profileUC := auth.NewProfileUsecase(userRepo)

	orderUC := usecase.NewOrderUsecase(
		txm,
		orderRepo,
		usecase.NewOrderValidator(userRepo, menuRepo),
		usecase.NewPaymentSettlement(d.Log),
		d.Notifier,
		d.IDGen,
		d.Clock,
		d.Metrics,
		d.Log,
	)
	menuUC := usecase.NewMenuUsecase(menuRepo, images, d.Log)
	categoryUC := usecase.NewCategoryUsecase(txm, categoryRepo)
	reviewUC := usecase.NewReviewUsecase(txm, reviewRepo)
	adminUC := usecase.NewAdminUsecase(txm, d.Clock)

	//認証: JWT検証 + token_version一致
	authed := []echo.MiddlewareFunc{
		middleware.AuthJWT(issuer),
		middleware.TokenVersionGuard(userRepo),
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	e.Static("/uploads", images.Dir())

	api := e.Group("/api")
	handler.NewUserHandler(registerUC, loginUC, logoutUC, profileUC).RegisterRoutes(api, authed...)
	handler.NewMenuHandler(menuUC).RegisterRoutes(api, authed...)
	handler.NewCategoryHandler(categoryUC).RegisterRoutes(api, authed...)
	handler.NewReviewHandler(reviewUC).RegisterRoutes(api, authed...)
	handler.NewOrderHandler(orderUC).RegisterRoutes(api, authed...)
	handler.NewAdminHandler(adminUC).RegisterRoutes(api, authed...)

	handler.NewWSHandler(d.Registry, d.Metrics, cfg.NotifyBuffer, cfg.FEURL, d.Log).RegisterRoutes(e, authed...)
}
