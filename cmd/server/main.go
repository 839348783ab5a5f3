package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Johnie198946/Authen-sub002/internal/config"
	"github.com/Johnie198946/Authen-sub002/internal/handler"
	"github.com/Johnie198946/Authen-sub002/internal/middleware"
	"github.com/Johnie198946/Authen-sub002/internal/repository"
	"github.com/Johnie198946/Authen-sub002/internal/service"
	"github.com/Johnie198946/Authen-sub002/pkg/database"
	"github.com/Johnie198946/Authen-sub002/pkg/log"
	"github.com/Johnie198946/Authen-sub002/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	config.Init("configs/config.yaml")
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	log.Info("Server started")

	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.RunMigrate(); err != nil {
		log.Fatal("Failed to run migrations", err)
		return
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	jwtManager := token.NewJWTManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpireHours)*time.Hour,
		time.Duration(cfg.JWT.RefreshTokenExpireDays)*24*time.Hour,
	)

	// 仓库层：引擎和解析器都通过显式注入的仓库句柄访问存储，便于测试替身。
	userRepo := repository.NewUserRepository(database.DB)
	nodeRepo := repository.NewOrganizationNodeRepository(database.DB)
	permRepo := repository.NewNodePermissionRepository(database.DB)
	membershipRepo := repository.NewUserOrganizationRepository(database.DB)

	// 服务层
	userService := service.NewUserService(userRepo, jwtManager)
	orgNodeService := service.NewOrgNodeService(nodeRepo)
	permissionService := service.NewPermissionService(nodeRepo, permRepo)
	membershipService := service.NewMembershipService(nodeRepo, membershipRepo, userRepo)

	// Handler 层
	userHandler := handler.NewUserHandler(userService)
	orgNodeHandler := handler.NewOrgNodeHandler(orgNodeService)
	permissionHandler := handler.NewPermissionHandler(permissionService)
	membershipHandler := handler.NewMembershipHandler(membershipService)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok"})
	})

	api := r.Group("/api/v1")

	// 公开路由：注册、登录
	api.POST("/auth/register", userHandler.Register)
	api.POST("/auth/login", userHandler.Login)

	// 登录用户路由：个人信息、登出、组织树只读查询
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(jwtManager, userService))
	authed.POST("/auth/logout", userHandler.Logout)
	authed.GET("/users/profile", userHandler.GetProfile)
	authed.GET("/org-nodes", orgNodeHandler.List)
	authed.GET("/org-nodes/tree", orgNodeHandler.GetTree)
	authed.GET("/org-nodes/:id/permissions", permissionHandler.GetEffective)

	// 管理员路由：组织树写操作、权限授权、成员关系、用户管理
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.AdminAuthMiddleware())
	admin.GET("/users", userHandler.ListUsers)
	admin.POST("/org-nodes", orgNodeHandler.Create)
	admin.PUT("/org-nodes/:id/name", orgNodeHandler.Rename)
	admin.PUT("/org-nodes/:id/parent", orgNodeHandler.Move)
	admin.DELETE("/org-nodes/:id", orgNodeHandler.Delete)
	admin.POST("/org-nodes/:id/permissions", permissionHandler.Assign)
	admin.DELETE("/org-nodes/:id/permissions/:permissionId", permissionHandler.Remove)
	admin.POST("/org-nodes/:id/users", membershipHandler.AssignUsers)
	admin.GET("/org-nodes/:id/users", membershipHandler.GetUsers)
	admin.DELETE("/org-nodes/:id/users/:userId", membershipHandler.RemoveUser)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
