package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 按运行环境构建结构化日志：
// - production：JSON 输出、info 级别
// - none：丢弃全部日志
// - 其他：控制台彩色输出、debug 级别
//
// 返回的 logger 由调用方持有并逐层注入，不使用包级全局变量。
func New(env string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "none", "nop":
		return Nop(), nil
	case "production", "prod":
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// CLI 的标准输出留给命令结果，日志统一走 stderr。
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Nop 返回丢弃全部输出的 logger，供测试与未配置日志的调用方使用。
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// OrNop 在 l 为 nil 时返回 Nop()。
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return Nop()
	}
	return l
}
