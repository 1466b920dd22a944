package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"salarysync/internal/config"
	"salarysync/internal/logging"
	"salarysync/internal/server"
)

var (
	port    = flag.Int("port", 0, "서비스 포트 (설정 파일보다 우선)")
	devMode = flag.Bool("dev", false, "개발 모드")
	dataDir = flag.String("dataDir", "", "데이터 디렉터리 (설정 파일보다 우선)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  SalarySync - 급여 대장 반입/대사 도구")
	fmt.Println("==========================================")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("설정을 불러오지 못해 기본값을 사용합니다: %v\n", err)
		cfg = config.DefaultConfig()
	}

	// 명령행 인자가 설정 파일을 덮어쓴다
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.Run(addr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	fmt.Printf("서비스 주소: http://localhost:%d\n", cfg.Server.Port)
	fmt.Println("종료하려면 Ctrl+C 를 누르세요...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n서비스를 종료합니다...")
	if err := srv.Close(); err != nil {
		logger.Warn("failed to close store", zap.Error(err))
	}
}
