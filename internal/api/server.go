package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"notehive/internal/api/auth"
	"notehive/internal/api/middleware"
	"notehive/internal/config"
	"notehive/internal/model"
	"notehive/internal/pkg/apperr"
	"notehive/internal/pkg/imgproc"
	"notehive/internal/pkg/metrics"
	"notehive/internal/pkg/notify"
	"notehive/internal/pkg/ratelimit"
	"notehive/internal/pkg/revoke"
	"notehive/internal/pkg/token"
	"notehive/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有数据库连接、Redis 客户端以及 Gin 路由引擎。
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
	rdb    *redis.Client
	router *gin.Engine
	tokens *token.Manager
	auth   *auth.Handler
	users  middleware.UserResolver
	notes  NoteStore
	schema graphql.Schema
}

// NoteStore 笔记接口需要的存储操作。
type NoteStore interface {
	Create(ctx context.Context, note *model.Note) error
	ByID(ctx context.Context, id uint) (*model.Note, error)
	DeleteOwned(ctx context.Context, id uint, ownerID uint) error
	List(ctx context.Context, filter store.NotesFilter) ([]model.Note, int64, error)
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MySQL 数据库并执行自动迁移
// 2. 连接 Redis
// 3. 初始化令牌管理器（密钥缺失时直接失败）
// 4. 初始化 Gin 路由引擎
//
// 参数:
//
//	ctx: 上下文
//	cfg: 配置对象
//	logger: 日志记录器
//
// 返回值:
//
//	*Server: 初始化完成的服务器实例
//	error: 初始化失败返回错误
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent), // 关闭GORM调试日志
		TranslateError: true,                                          // 唯一键冲突映射为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.Note{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		Secret:        cfg.Security.JWTSecret,
		DefaultExpiry: cfg.Security.TokenExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	users := store.NewUsers(db)
	notes := store.NewNotes(db)
	revoker := revoke.NewStore(rdb)
	emailNotifier := notify.NewEmailNotifier(&cfg.Email, logger)
	pics := imgproc.NewProcessor(cfg.App.UploadDir)

	// 初始化 Prometheus 指标
	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.App.Origins(), cfg.IsDevelopment()))

	s := &Server{
		cfg:    cfg,
		logger: logger,
		db:     db,
		rdb:    rdb,
		router: r,
		tokens: tokens,
		auth:   auth.NewHandler(users, tokens, revoker, emailNotifier, pics, logger),
		users:  users,
		notes:  notes,
	}

	schema, err := s.buildSchema()
	if err != nil {
		return nil, fmt.Errorf("build graphql schema: %w", err)
	}
	s.schema = schema

	s.registerRoutes()
	return s, nil
}

// Run 启动 HTTP 服务器并开始监听请求。
func (s *Server) Run() error {
	s.logger.Info("api server listening", slog.String("addr", s.cfg.App.HTTPAddr))
	return s.router.Run(s.cfg.App.HTTPAddr)
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// Close 关闭数据库与缓存连接。
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			if closeErr := sqlDB.Close(); closeErr != nil {
				if firstErr == nil {
					firstErr = closeErr
				}
			}
		}
	}
	return firstErr
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes() {
	errHandler := middleware.ErrorHandler(s.logger, s.cfg.IsDevelopment())
	guard := middleware.RequireAuth(s.tokens, s.users)
	limiter := ratelimit.NewLimiter(s.rdb, "notehive:ratelimit:", s.cfg.App.RateLimit, s.cfg.App.RateBurst)

	// Prometheus metrics 端点
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/healthz", s.handleHealthz)

	v1 := s.router.Group("/api/v1", errHandler)

	throttle := middleware.RateLimit(limiter, s.logger)

	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", s.auth.Signup)
	authGroup.POST("/login", throttle, s.auth.Login)
	authGroup.POST("/forgot-password", throttle, s.auth.ForgotPassword)
	authGroup.POST("/verify-code", throttle, s.auth.VerifyCode)
	authGroup.PUT("/reset-password", s.auth.ResetPassword)
	authGroup.POST("/logout", guard, s.auth.Logout)
	authGroup.PATCH("/profile-pic", guard, s.auth.UpdateProfilePic)

	notes := v1.Group("/notes", guard)
	notes.POST("", s.handleCreateNote)
	notes.GET("", s.handleListNotes)
	notes.DELETE("/:id", s.handleDeleteNote)

	s.router.POST("/graphql", errHandler, guard, s.handleGraphQL)

	s.router.NoRoute(errHandler, func(c *gin.Context) {
		_ = c.Error(apperr.New(http.StatusNotFound, apperr.StatusError,
			fmt.Sprintf("This route %s not found.", c.Request.URL.Path)))
	})
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
