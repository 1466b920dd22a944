package server

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salarysync/internal/config"
	"salarysync/internal/importer"
	"salarysync/internal/parser"
	"salarysync/internal/reconcile"
	"salarysync/internal/server/handlers"
	"salarysync/internal/store"
)

// Server HTTP 서버
type Server struct {
	router *gin.Engine
	store  *store.Store
	logger *zap.Logger
}

// NewServer 서버 생성
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "salarysync.db")

	sqliteStore, err := store.New(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	dict := parser.DefaultDictionary()
	if cfg.Ingest.DictionaryFile != "" {
		dict, err = parser.LoadDictionary(cfg.Ingest.DictionaryFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load dictionary: %w", err)
		}
	}
	p := parser.NewParser(dict, cfg.Ingest.Tolerance)
	engine := reconcile.NewEngine(sqliteStore, logger)
	coordinator := importer.NewCoordinator(sqliteStore, p, engine, logger)
	handler := handlers.NewHandler(sqliteStore, coordinator, logger,
		cfg.Ingest.MaxUploadMB, cfg.Ingest.Tolerance, cfg.Ingest.DefaultStrategy)

	s := &Server{
		router: gin.Default(),
		store:  sqliteStore,
		logger: logger,
	}
	s.setupRoutes(handler)

	return s, nil
}

// setupRoutes 라우트 설정
func (s *Server) setupRoutes(handler *handlers.Handler) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		handler.RegisterRoutes(api)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Run 서버 시작
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 보유 자원 해제
func (s *Server) Close() error {
	return s.store.Close()
}
