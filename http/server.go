// Package http 提供预测服务的HTTP服务器
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"churnserve/config"
	_ "churnserve/docs"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置。请求处理本身不设超时。
type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8000,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// ServerConfigFrom 从全局配置构造服务器配置
func ServerConfigFrom(cfg *config.Config) ServerConfig {
	return ServerConfig{
		Port:           cfg.Http.Port,
		ReadTimeout:    cfg.Http.ReadTimeout,
		WriteTimeout:   cfg.Http.WriteTimeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}
}

// NewServer 创建HTTP服务器
func NewServer(cfg ServerConfig, handlers *Handlers, metrics *Metrics, logger *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      NewRouter(cfg, handlers, metrics, logger),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  120 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// NewRouter 注册所有路由并套上中间件链
func NewRouter(cfg ServerConfig, handlers *Handlers, metrics *Metrics, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	handlers.Register(mux)
	mux.Handle("GET /docs/", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))
	mux.Handle("GET /metrics", metrics.Handler())

	chain := Chain(
		RecoveryMiddleware(logger),         // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware(logger),           // 2. 日志中间件
		SecurityHeadersMiddleware,          // 3. 安全头中间件
		CORSMiddleware(cfg.AllowedOrigins), // 4. CORS中间件
		MetricsMiddleware(metrics),         // 5. 指标中间件
	)
	return chain(mux)
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.String("docs", fmt.Sprintf("http://localhost%s/docs/index.html", s.server.Addr)),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 优雅停止服务器
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
