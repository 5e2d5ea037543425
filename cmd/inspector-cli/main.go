package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"engine-inspector/internal/app"
	"engine-inspector/internal/platform/logging"

	"github.com/spf13/cobra"
)

// CLI 入口。所有子命令错误都统一输出到 stderr 并返回非 0 状态码。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// rootFlags 是所有子命令共享的参数；非空时覆盖配置文件与环境变量。
type rootFlags struct {
	configPath string
	dbPath     string
	exportDir  string
	listsPath  string
	logEnv     string
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "inspector-cli",
		Short:         "Engine inspection checklists: capture, history, PDF export",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default config/inspector.yaml)")
	pf.StringVar(&f.dbPath, "db", "", "sqlite database path")
	pf.StringVar(&f.exportDir, "export-dir", "", "directory for PDF and JSON exports")
	pf.StringVar(&f.listsPath, "lists", "", "selection lists seed (YAML)")
	pf.StringVar(&f.logEnv, "log-env", "", "log format: development|production|none")

	root.AddCommand(
		newVersionCmd(),
		newMigrateCmd(f),
		newServeCmd(f),
		newChecklistCmd(f),
		newExportCmd(f),
		newSettingsCmd(f),
		newDBCmd(f),
	)
	return root
}

// loadConfig 合并配置文件、环境变量与命令行参数。
func (f *rootFlags) loadConfig(cmd *cobra.Command) (app.Config, error) {
	cfg, err := app.Load(f.configPath)
	if err != nil {
		return app.Config{}, err
	}
	pf := cmd.Flags()
	if pf.Changed("db") {
		cfg.DBPath = f.dbPath
	}
	if pf.Changed("export-dir") {
		cfg.ExportDir = f.exportDir
	}
	if pf.Changed("lists") {
		cfg.ListsSeedPath = f.listsPath
	}
	if pf.Changed("log-env") {
		cfg.LogEnv = f.logEnv
	}
	return cfg, nil
}

// open 加载配置并打开运行时；调用方负责 Close。
func (f *rootFlags) open(cmd *cobra.Command) (*app.Runtime, error) {
	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogEnv)
	if err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), cfg, log)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "inspector-cli %s\n", app.Version)
			if app.Commit != "" {
				fmt.Fprintf(out, "  commit: %s\n", app.Commit)
			}
			if app.BuildTime != "" {
				fmt.Fprintf(out, "  built:  %s\n", app.BuildTime)
			}
		},
	}
}
