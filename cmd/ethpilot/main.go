package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ethpilot/internal/app"
	"ethpilot/internal/config"
	"ethpilot/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "ethpilot",
		Short:        "AI-driven ETH perpetual trading loop for OKX",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "配置文件路径（默认读取 ETHPILOT_CONFIG 或 configs/config.yaml）")
	root.AddCommand(newRunCmd(&cfgPath), newCheckCmd(&cfgPath))
	return root
}

func newRunCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the trading loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.ResolvePath(*cfgPath)
			cfg, cleanup, err := bootstrap(path)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApp(ctx, cfg, path)
			if err != nil {
				return fmt.Errorf("初始化应用失败: %w", err)
			}
			logger.Infof("交易程序启动 (Ctrl+C 退出)")
			if err := a.Run(ctx); err != nil {
				return fmt.Errorf("运行失败: %w", err)
			}
			logger.Infof("程序已停止")
			return nil
		},
	}
}

func newCheckCmd(cfgPath *string) *cobra.Command {
	var (
		trade  bool
		offset float64
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify exchange data, account access and the model round-trip",
		Long: `check 依次验证行情、账户与模型调用。
加上 --trade 会用最小仓位真实开多、挂止盈止损、撤单、平仓，再对空头重复一次。`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, cleanup, err := bootstrap(config.ResolvePath(*cfgPath))
			if err != nil {
				return err
			}
			defer cleanup()

			comps, err := app.NewAppBuilder(cfg).Components()
			if err != nil {
				return err
			}
			rep := app.RunCheck(cmd.Context(), cfg, comps, app.CheckOptions{
				Trade:  trade,
				Offset: decimal.NewFromFloat(offset),
			})
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "K线: %d 根  最新价: %s\n", rep.Candles, rep.Price)
			fmt.Fprintf(out, "账户: 可用 %s  权益 %s  持仓 %s %s\n", rep.Account.Available, rep.Account.TotalEquity, rep.Position.Side, rep.Position.Size)
			fmt.Fprintf(out, "模型: %s (%s) %s\n", rep.Decision.Action, rep.Decision.Confidence, rep.Decision.Reason)
			for _, tc := range rep.Trades {
				fmt.Fprintf(out, "交易 %s: ordId=%s entry=%s bracket=%s 撤单=%d 平仓=%t\n", tc.Side, tc.OrderID, tc.EntryPrice, tc.Bracket, tc.Cancelled, tc.Closed)
			}
			if err := rep.Err(); err != nil {
				return fmt.Errorf("自检失败: %w", err)
			}
			fmt.Fprintln(out, "✓ 自检通过")
			return nil
		},
	}
	cmd.Flags().BoolVar(&trade, "trade", false, "真实下单测试（会产生成交与手续费）")
	cmd.Flags().Float64Var(&offset, "offset", 10, "交易自检时止盈止损距入场价的距离（USDT）")
	return cmd
}

// bootstrap 加载 .env 与配置，并初始化日志输出；返回的 cleanup 关闭日志文件。
func bootstrap(path string) (*config.Config, func(), error) {
	_ = godotenv.Load()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置失败: %w", err)
	}
	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志文件失败: %w", err)
	}
	if logFile != nil {
		closers = append(closers, logFile)
	}
	logger.SetLLMWriter(nil)
	if f, err := setupLLMLogOutput(cfg.App.LLMLog); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("初始化 LLM 日志失败: %w", err)
	} else if f != nil {
		closers = append(closers, f)
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.EnableLLMPayloadDump(cfg.App.LLMDump)
	logger.Infof("✓ 配置加载成功（环境=%s，标的=%s，路径=%s）", cfg.App.Env, cfg.Trading.InstID, path)
	return cfg, cleanup, nil
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

func setupLLMLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	logger.SetLLMWriter(f)
	return f, nil
}
