package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/lexiz/internal/config"
)

// New builds the application logger. Production uses JSON output, anything
// else the development console encoder. Output goes to cfg.Log.Path, or
// lexiz.log under dataDir so the terminal UI is left alone.
func New(cfg *config.Config, dataDir string) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Env == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	path := cfg.Log.Path
	switch path {
	case "stderr", "stdout":
	case "":
		path = filepath.Join(dataDir, "lexiz.log")
		fallthrough
	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}

	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}
