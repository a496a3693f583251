package main

import (
	"context"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/token"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Factory Admin API
// @version         1.0
// @description     Internal admin backend with role-based access control.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		logrus.Info("no configs/.env file found, using environment")
	}

	cfg := config.Load()

	db, err := database.NewConnection(cfg.DatabaseDSN)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	logrus.Info("connected to PostgreSQL")

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	tokenService := token.NewService(cfg.JWTSecret, cfg.TokenExpiry)

	auditService := service.NewAuditService(auditRepo)
	sessionService := service.NewSessionService(userRepo, roleRepo)
	authService := service.NewAuthService(userRepo, roleRepo, tokenService, auditService, cfg.MaxLoginAttempts, cfg.LockoutDuration)
	userService := service.NewUserService(userRepo, roleRepo, auditService)
	roleService := service.NewRoleService(roleRepo, permRepo, userRepo, txManager, auditService)
	permissionService := service.NewPermissionService(permRepo, roleRepo, auditService)

	// Seed the permission catalog, system roles and the initial admin.
	seeder := service.NewSeeder(userRepo, roleRepo, permRepo, cfg)
	if err := seeder.Run(context.Background()); err != nil {
		logrus.WithError(err).Fatal("seeding failed")
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService, sessionService)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, userService, authMiddleware)
	userHandler := handler.NewUserHandler(userService, authMiddleware)
	roleHandler := handler.NewRoleHandler(roleService, authMiddleware)
	permissionHandler := handler.NewPermissionHandler(permissionService, authMiddleware)
	auditHandler := handler.NewAuditHandler(auditService, authMiddleware)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	permissionHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	logrus.WithField("port", cfg.Port).Info("server listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("server failed")
	}
}
