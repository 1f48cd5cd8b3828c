package router

import (
	"time"

	"restpos/internal/auth"
	"restpos/internal/config"
	"restpos/internal/handler"
	"restpos/internal/infra"
	"restpos/internal/middleware"
	"restpos/internal/ratelimit"
	"restpos/internal/repository"
	"restpos/internal/service"
	"restpos/internal/session"
	"restpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, signerCB *infra.CircuitBreaker, dispatcher *worker.Dispatcher, notifier *worker.Notifier) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	signerClient := infra.NewSignerClient(cfg.SignerURL)
	loginLimiter := ratelimit.NewRedisLimiter(rdb, cfg.LoginRateLimit, time.Duration(cfg.LoginRateWindowSeconds)*time.Second)
	sessions := session.NewRedisStore(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	dispositivoRepo := repository.NewDispositivoRepository(db)
	mesaRepo := repository.NewMesaRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	ordenRepo := repository.NewOrdenRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, dispositivoRepo, loginLimiter, sessions, signerClient, signerCB, cfg)
	dispositivoSvc := service.NewDispositivoService(dispositivoRepo)
	mesaSvc := service.NewMesaService(mesaRepo, ordenRepo)
	productoSvc := service.NewProductoService(productoRepo, movimientoStockRepo, notifier)
	ordenSvc := service.NewOrdenService(ordenRepo, mesaRepo, productoRepo, usuarioRepo, dispatcher, notifier)
	reporteSvc := service.NewReporteService(ordenRepo, usuarioRepo, dispatcher, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	dispositivosH := handler.NewDispositivosHandler(dispositivoSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	mesasH := handler.NewMesasHandler(mesaSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	ordenesH := handler.NewOrdenesHandler(ordenSvc)
	reportesH := handler.NewReportesHandler(reporteSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, signerCB))

	// Device onboarding (public): a tablet registers itself and polls its
	// approval state before the login screen unlocks.
	dispositivos := r.Group("/v1/dispositivos")
	{
		dispositivos.POST("/registrar", dispositivosH.Registrar)
		dispositivos.GET("/estado", dispositivosH.Estado)
	}

	// Auth (public). Login throttling is enforced inside the service, after
	// the device gate, so an unapproved device never consumes attempts.
	login := r.Group("/v1/auth")
	{
		login.POST("/login", authH.Login)
		login.GET("/sesion", authH.Sesion)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.POST("/auth/logout", authH.Logout)

		v1.GET("/mesas", middleware.RequirePermiso(auth.PermMesaVer), mesasH.Listar)
		v1.POST("/mesas", middleware.RequirePermiso(auth.PermMesaAdmin), mesasH.Crear)

		ordenes := v1.Group("/ordenes")
		{
			ordenes.POST("", middleware.RequirePermiso(auth.PermOrdenCrear), ordenesH.Abrir)
			ordenes.GET("", middleware.RequirePermiso(auth.PermOrdenVer), ordenesH.ListarAbiertas)
			ordenes.GET("/:id", middleware.RequirePermiso(auth.PermOrdenVer), ordenesH.Obtener)
			ordenes.POST("/:id/items", middleware.RequirePermiso(auth.PermOrdenCrear), ordenesH.AgregarItems)
			ordenes.POST("/:id/comanda", middleware.RequirePermiso(auth.PermComandaEnviar), ordenesH.EnviarComanda)
			ordenes.POST("/:id/cerrar", middleware.RequirePermiso(auth.PermOrdenCerrar), ordenesH.Cerrar)
			ordenes.POST("/:id/anular", middleware.RequirePermiso(auth.PermOrdenAnular), ordenesH.Anular)
		}

		v1.GET("/productos", middleware.RequirePermiso(auth.PermProductoVer), productosH.Listar)
		v1.GET("/productos/:id", middleware.RequirePermiso(auth.PermProductoVer), productosH.Obtener)
		v1.PATCH("/productos/:id/stock", middleware.RequirePermiso(auth.PermStockAjustar), productosH.AjustarStock)
		v1.GET("/productos/:id/movimientos", middleware.RequirePermiso(auth.PermStockAjustar), productosH.Movimientos)
		v1.GET("/stock/alertas", middleware.RequirePermiso(auth.PermStockAjustar), productosH.Alertas)
		v1.GET("/stock/movimientos", middleware.RequirePermiso(auth.PermStockAjustar), productosH.ListarMovimientos)
		prods := v1.Group("/productos", middleware.RequirePermiso(auth.PermProductoAdmin))
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
			prods.PATCH("/:id/reactivar", productosH.Reactivar)
		}

		reportes := v1.Group("/reportes", middleware.RequirePermiso(auth.PermReporteVer))
		{
			reportes.GET("/ventas", reportesH.VentasDiarias)
			reportes.POST("/ventas/email", reportesH.EnviarPorEmail)
		}

		usuarios := v1.Group("/usuarios", middleware.RequirePermiso(auth.PermUsuarioAdmin))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}

		admin := v1.Group("/dispositivos", middleware.RequirePermiso(auth.PermDispositivoAdmin))
		{
			admin.GET("", dispositivosH.Listar)
			admin.POST("/:id/aprobar", dispositivosH.Aprobar)
			admin.POST("/:id/rechazar", dispositivosH.Rechazar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
