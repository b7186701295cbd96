package router

import (
	"smart/internal/config"
	"smart/internal/handler"
	"smart/internal/infra"
	"smart/internal/middleware"
	"smart/internal/model"
	"smart/internal/repository"
	"smart/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the connections and remote collaborators built by main.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Auth     *infra.HostedAuth
	Uploader service.Uploader
	Events   service.EventPublisher
	Jobs     service.JobDispatcher
	Breakers []*infra.CircuitBreaker
}

// App is the wired HTTP engine plus the long-lived pieces main has to run.
type App struct {
	Engine    *gin.Engine
	Terminals service.TerminalService
	Sesion    service.SesionService
	Limiters  []*middleware.RateLimiter
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *App {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	apiLimiter := middleware.APIRateLimiter()
	eventLimiter := middleware.SessionEventLimiter()

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(apiLimiter.Handler())

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(d.DB)
	productoRepo := repository.NewProductoRepository(d.DB)
	ventaRepo := repository.NewVentaRepository(d.DB)
	pedidoRepo := repository.NewPedidoRepository(d.DB)
	cuponRepo := repository.NewCuponRepository(d.DB)
	movimientoRepo := repository.NewMovimientoStockRepository(d.DB)
	cierreRepo := repository.NewCierreRepository(d.DB)
	chatRepo := repository.NewChatRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	productoSvc := service.NewProductoService(productoRepo, d.Redis, cfg.CatalogCacheTTL())
	cuponSvc := service.NewCuponService(cuponRepo)
	kv := infra.NewKVStore(d.Redis, cfg.TerminalIdleTTL())
	terminalSvc := service.NewTerminalService(productoSvc, usuarioRepo, kv, d.Auth)
	sesionSvc := service.NewSesionService(d.Auth, terminalSvc)
	carritoSvc := service.NewCarritoService(cuponSvc)
	checkoutSvc := service.NewCheckoutService(
		ventaRepo, pedidoRepo, productoRepo, cuponRepo, movimientoRepo,
		productoSvc, d.Jobs, d.Events,
		service.CheckoutOptions{SplitPorVendedor: cfg.OnlineCheckoutSplit},
	)
	cajaSvc := service.NewCajaService(ventaRepo, cierreRepo, usuarioRepo, cfg.StoreName, cfg.PDFStoragePath)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoRepo, cfg.LowStockThreshold)
	chatSvc := service.NewChatService(chatRepo, usuarioRepo, infra.NewRealtime(d.Redis))
	imagenSvc := service.NewImagenService(d.Uploader)

	// ── Handlers ─────────────────────────────────────────────────────────────
	sesionH := handler.NewSesionHandler(sesionSvc)
	productosH := handler.NewProductosHandler(productoSvc, terminalSvc)
	carritoH := handler.NewCarritoHandler(carritoSvc)
	ventasH := handler.NewVentasHandler(checkoutSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	chatH := handler.NewChatHandler(chatSvc)
	imagenesH := handler.NewImagenesHandler(imagenSvc)
	jobsH := handler.NewJobsHandler(d.Redis)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, terminalSvc, d.Breakers...))
	r.GET("/api", handler.Bienvenida)
	r.GET("/api/productos", handler.BienvenidaProductos)

	// Every /v1 route runs against the caller's terminal (X-Client-ID)
	v1 := r.Group("/v1", middleware.Terminal(terminalSvc, d.Auth))
	{
		v1.GET("/sesion", sesionH.Estado)
		v1.POST("/sesion/eventos", eventLimiter.Handler(), sesionH.Evento)

		v1.GET("/productos", productosH.Listar)

		carrito := v1.Group("/carrito")
		{
			carrito.GET("", carritoH.Ver)
			carrito.DELETE("", carritoH.Cancelar)
			carrito.POST("/items", carritoH.Agregar)
			carrito.PUT("/items/:producto_id", carritoH.Actualizar)
			carrito.DELETE("/items/:producto_id", carritoH.Quitar)
			carrito.POST("/cupon", carritoH.AplicarCupon)
		}

		auth := v1.Group("", middleware.RequireAuth())
		{
			auth.POST("/sesion/cerrar", sesionH.Cerrar)

			// Roles declared per-endpoint
			auth.POST("/checkout/pos", middleware.RequireRole(model.RolCajero, model.RolAdministrador), ventasH.CheckoutPOS)
			auth.POST("/checkout/en-linea", middleware.RequireRole(model.RolCliente, model.RolVendedor, model.RolAdministrador), ventasH.CheckoutEnLinea)

			cajeros := middleware.RequireRole(model.RolCajero, model.RolAdministrador)
			auth.GET("/ventas", cajeros, ventasH.ListarVentas)
			auth.GET("/ventas/:id/ticket", cajeros, ventasH.DescargarTicket)
			auth.POST("/caja/reporte", cajeros, cajaH.Reporte)
			auth.POST("/caja/cierre", middleware.RequireRole(model.RolCajero), cajaH.Cierre)

			vendedores := middleware.RequireRole(model.RolVendedor, model.RolAdministrador)
			auth.GET("/alertas/stock", vendedores, inventarioH.Alertas)
			auth.GET("/inventario/movimientos", vendedores, inventarioH.Movimientos)
			auth.POST("/imagenes", vendedores, imagenesH.Subir)

			chat := auth.Group("/chat/conversaciones")
			{
				chat.GET("", chatH.Conversaciones)
				chat.POST("", chatH.Iniciar)
				chat.GET("/:id/mensajes", chatH.Mensajes)
				chat.POST("/:id/mensajes", chatH.Enviar)
				chat.POST("/:id/leido", chatH.MarcarLeido)
				chat.GET("/:id/stream", chatH.Stream)
			}

			jobs := auth.Group("/jobs", middleware.RequireRole(model.RolAdministrador))
			{
				jobs.GET("/dlq", jobsH.ListarDLQ)
				jobs.POST("/dlq/:queue/reintentar", jobsH.Reintentar)
			}
		}
	}

	// Swagger UI outside production only
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return &App{
		Engine:    r,
		Terminals: terminalSvc,
		Sesion:    sesionSvc,
		Limiters:  []*middleware.RateLimiter{apiLimiter, eventLimiter},
	}
}
