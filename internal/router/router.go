package router

import (
	"context"
	"time"

	"vestibox/internal/config"
	"vestibox/internal/handler"
	"vestibox/internal/infra"
	"vestibox/internal/metrics"
	"vestibox/internal/middleware"
	"vestibox/internal/repository"
	"vestibox/internal/service"
	"vestibox/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis.
// rdb may be nil: the product cache and receipt jobs are then disabled.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	rl := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	rl.StartPurge(ctx, 5*time.Minute)

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(rl.Middleware())

	// ── Infrastructure ───────────────────────────────────────────────────────
	var (
		cache      service.ProductoCache
		dispatcher service.ComprobanteDispatcher
	)
	if rdb != nil {
		cache = infra.NewProductoCache(rdb, cfg.CacheTTL)
		dispatcher = worker.NewDispatcher(rdb)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	clienteRepo := repository.NewClienteRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoRepo := repository.NewMovimientoStockRepository(db)
	alquilerRepo := repository.NewAlquilerRepository(db)
	ventaRepo := repository.NewVentaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoRepo, cache, cfg.StockPermitirNegativo)
	clienteSvc := service.NewClienteService(clienteRepo)
	productoSvc := service.NewProductoService(productoRepo, cache)
	alquilerSvc := service.NewAlquilerService(alquilerRepo, clienteRepo, productoRepo, inventarioSvc, cache, dispatcher,
		service.AlquilerConfig{ModoStock: cfg.AlquilerModoStock, EstadosEstrictos: cfg.EstadosEstrictos})
	ventaSvc := service.NewVentaService(ventaRepo, clienteRepo, productoRepo, inventarioSvc, cache, dispatcher, cfg.EstadosEstrictos)

	// ── Handlers ─────────────────────────────────────────────────────────────
	clientesH := handler.NewClientesHandler(clienteSvc)
	productosH := handler.NewProductosHandler(productoSvc, inventarioSvc)
	alquileresH := handler.NewAlquileresHandler(alquilerSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/v1")
	if cfg.JWTSecret != "" {
		v1.Use(middleware.JWTAuth(cfg.JWTSecret), middleware.SoloLecturaGET())
	}
	{
		clientes := v1.Group("/clientes")
		clientes.POST("", clientesH.Crear)
		clientes.GET("", clientesH.Listar)
		clientes.GET("/:id", clientesH.ObtenerPorID)
		clientes.PUT("/:id", clientesH.Actualizar)
		clientes.DELETE("/:id", clientesH.Eliminar)

		productos := v1.Group("/productos")
		productos.POST("", productosH.Crear)
		productos.GET("", productosH.Listar)
		productos.GET("/:id", productosH.ObtenerPorID)
		productos.PUT("/:id", productosH.Actualizar)
		productos.DELETE("/:id", productosH.Eliminar)
		productos.PATCH("/:id/stock", productosH.AjustarStock)
		productos.GET("/:id/disponibilidad", productosH.Disponibilidad)

		alquileres := v1.Group("/alquileres")
		alquileres.POST("", alquileresH.Registrar)
		alquileres.GET("", alquileresH.Listar)
		alquileres.GET("/cliente/:cliente_id", alquileresH.ListarPorCliente)
		alquileres.GET("/:id", alquileresH.ObtenerPorID)
		alquileres.PUT("/:id/estado", alquileresH.ActualizarEstado)
		alquileres.DELETE("/:id", alquileresH.Eliminar)

		ventas := v1.Group("/ventas")
		ventas.POST("", ventasH.Registrar)
		ventas.GET("", ventasH.Listar)
		ventas.GET("/cliente/:cliente_id", ventasH.ListarPorCliente)
		ventas.GET("/:id", ventasH.ObtenerPorID)
		ventas.PUT("/:id/estado", ventasH.ActualizarEstado)
		ventas.DELETE("/:id", ventasH.Eliminar)

		v1.GET("/inventario/movimientos", inventarioH.ListarMovimientos)
	}

	// Swagger UI, only enabled outside production
	if !cfg.Production() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
