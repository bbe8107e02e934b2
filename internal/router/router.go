package router

import (
	"time"

	"tallerpro/internal/config"
	"tallerpro/internal/handler"
	"tallerpro/internal/middleware"
	"tallerpro/internal/repository"
	"tallerpro/internal/service"
	"tallerpro/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
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

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	vehiculoRepo := repository.NewVehiculoRepository(db)
	repuestoRepo := repository.NewRepuestoRepository(db)
	presupuestoRepo := repository.NewPresupuestoRepository(db)
	ordenRepo := repository.NewOrdenRepository(db)
	historialRepo := repository.NewHistorialRepository(db)
	movimientoRepo := repository.NewMovimientoStockRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	clienteSvc := service.NewClienteService(clienteRepo)
	vehiculoSvc := service.NewVehiculoService(vehiculoRepo, clienteRepo)
	repuestoSvc := service.NewRepuestoService(repuestoRepo, movimientoRepo, dispatcher, rdb)
	historialSvc := service.NewHistorialService(historialRepo)

	reservas := service.NewReservaCoordinator(repuestoRepo, movimientoRepo, dispatcher)
	presupuestoSvc := service.NewPresupuestoService(presupuestoRepo, repuestoRepo, clienteRepo, vehiculoRepo, reservas, historialSvc)
	ordenSvc := service.NewOrdenService(ordenRepo, presupuestoRepo, repuestoRepo, clienteRepo, vehiculoRepo, reservas, historialSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	vehiculosH := handler.NewVehiculosHandler(vehiculoSvc)
	repuestosH := handler.NewRepuestosHandler(repuestoSvc)
	presupuestosH := handler.NewPresupuestosHandler(presupuestoSvc)
	ordenesH := handler.NewOrdenesHandler(ordenSvc)
	historialH := handler.NewHistorialHandler(historialSvc)
	consultaH := handler.NewConsultaPreciosHandler(repuestoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check — no auth required
	r.GET("/v1/publico/:taller/precios/:codigo", consultaH.GetPrecioPorCodigo)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: mecanico, supervisor, administrador — declared per-endpoint
		todos := middleware.RequireRole("mecanico", "supervisor", "administrador")
		gestion := middleware.RequireRole("supervisor", "administrador")

		clientes := v1.Group("/clientes", todos)
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.Obtener)
			clientes.PUT("/:id", clientesH.Actualizar)
		}
		v1.DELETE("/clientes/:id", gestion, clientesH.Eliminar)

		vehiculos := v1.Group("/vehiculos", todos)
		{
			vehiculos.POST("", vehiculosH.Crear)
			vehiculos.GET("", vehiculosH.Listar)
			vehiculos.GET("/:id", vehiculosH.Obtener)
			vehiculos.PUT("/:id", vehiculosH.Actualizar)
		}
		v1.DELETE("/vehiculos/:id", gestion, vehiculosH.Eliminar)

		// Repuestos — reads for everyone, stock adjust and writes for gestion
		v1.GET("/repuestos", todos, repuestosH.Listar)
		v1.GET("/repuestos/:id", todos, repuestosH.Obtener)
		v1.GET("/repuestos/alertas", todos, repuestosH.Alertas)
		v1.GET("/repuestos/movimientos", todos, repuestosH.Movimientos)
		repuestos := v1.Group("/repuestos", gestion)
		{
			repuestos.POST("", repuestosH.Crear)
			repuestos.PUT("/:id", repuestosH.Actualizar)
			repuestos.DELETE("/:id", repuestosH.Eliminar)
			repuestos.PATCH("/:id/stock", repuestosH.AjustarStock)
		}

		presupuestos := v1.Group("/presupuestos", todos)
		{
			presupuestos.POST("", presupuestosH.Crear)
			presupuestos.GET("", presupuestosH.Listar)
			presupuestos.GET("/:id", presupuestosH.Obtener)
			presupuestos.PUT("/:id", presupuestosH.Actualizar)
		}
		// Approval commits stock — supervisor or administrador
		v1.PATCH("/presupuestos/:id/estado", gestion, presupuestosH.CambiarEstado)
		v1.DELETE("/presupuestos/:id", gestion, presupuestosH.Eliminar)

		ordenes := v1.Group("/ordenes", todos)
		{
			ordenes.POST("", ordenesH.Crear)
			ordenes.GET("", ordenesH.Listar)
			ordenes.GET("/:id", ordenesH.Obtener)
			ordenes.PUT("/:id", ordenesH.Actualizar)
			ordenes.PATCH("/:id/estado", ordenesH.CambiarEstado)
		}
		v1.DELETE("/ordenes/:id", gestion, ordenesH.Eliminar)

		v1.GET("/historial", todos, historialH.Listar)
		v1.GET("/historial/:tipo/:id", todos, historialH.PorEntidad)

		usuarios := v1.Group("/usuarios", middleware.RequireRole("administrador"))
		{
			usuarios.POST("", authH.CrearUsuario)
			usuarios.GET("", authH.ListarUsuarios)
			usuarios.PUT("/:id", authH.ActualizarUsuario)
			usuarios.DELETE("/:id", authH.DesactivarUsuario)
			usuarios.PATCH("/:id/reactivar", authH.ReactivarUsuario)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
