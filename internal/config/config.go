package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 애플리케이션 설정
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Ingest IngestConfig `toml:"ingest"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig 서버 설정
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 데이터 설정
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// IngestConfig 급여 적재 설정
type IngestConfig struct {
	// Tolerance 총액 대사 허용 오차 (통화 최소 단위).
	// 경험적으로 정한 값이므로 설정으로 노출한다.
	Tolerance float64 `toml:"tolerance"`
	// DefaultStrategy 배치 기본 충돌 해소 전략
	DefaultStrategy string `toml:"default_strategy"`
	// MaxUploadMB 업로드 허용 최대 크기
	MaxUploadMB int64 `toml:"max_upload_mb"`
	// DictionaryFile 고객사별 헤더 사전 덮어쓰기 파일 (비우면 내장 사전)
	DictionaryFile string `toml:"dictionary_file"`
}

// LogConfig 로그 설정
type LogConfig struct {
	Level  string `toml:"level"`  // debug/info/warn/error
	Format string `toml:"format"` // json 또는 console
}

// DefaultConfig 기본 설정
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20870,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Ingest: IngestConfig{
			Tolerance:       1000,
			DefaultStrategy: "UPSERT",
			MaxUploadMB:     32,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

const configFilename = "config.toml"

// Load 실행 디렉터리의 config.toml 을 읽는다. 없으면 기본 설정.
func Load() (*AppConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configFilename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read %s: %w", configFilename, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse %s: %w", configFilename, err)
	}
	return cfg, nil
}

// EnsureDataDir 데이터 디렉터리 생성 후 절대 경로 반환
func EnsureDataDir(cfg *AppConfig) (string, error) {
	dir := cfg.Data.DataDir
	if dir == "" {
		dir = "data"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return abs, nil
}
