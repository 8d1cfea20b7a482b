package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ethpilot/internal/agent/engine"
	"ethpilot/internal/agent/service/market"
	"ethpilot/internal/agent/service/position"
	"ethpilot/internal/analysis/indicator"
	"ethpilot/internal/config"
	"ethpilot/internal/decision"
	"ethpilot/internal/executor"
	"ethpilot/internal/gateway/binance"
	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/gateway/notifier"
	"ethpilot/internal/gateway/okx"
	"ethpilot/internal/gateway/provider"
	"ethpilot/internal/logger"
	marketdata "ethpilot/internal/market"
	"ethpilot/internal/pkg/circuit"
	"ethpilot/internal/prompt"
	"ethpilot/internal/store"
	"ethpilot/internal/store/sqlite"
	livehttp "ethpilot/internal/transport/http/live"
)

// Components 是一次装配得到的全部运行期部件；check 命令也复用它。
type Components struct {
	Gateway   exchange.Gateway
	Klines    marketdata.Source
	Market    *market.Service
	Positions *position.Service
	Oracle    *engine.Oracle
	Validator *decision.Validator
	Lots      executor.LotConverter
	Placer    *executor.OrderPlacer
	Entry     *executor.EntryPriceResolver
	Brackets  *executor.BracketOrderManager
	Notifier  notifier.TextNotifier
}

type AppBuilder struct {
	cfg     *config.Config
	cfgPath string

	gatewayFn  func(config.ExchangeConfig) exchange.Gateway
	klinesFn   func(config.MarketConfig, exchange.Gateway) (marketdata.Source, error)
	providerFn func(config.AIConfig) (provider.ModelProvider, error)
	journalFn  func(config.JournalConfig) (store.Store, error)
	notifierFn func(config.NotifyConfig) notifier.TextNotifier
	sleep      func(time.Duration)
}

type AppBuilderOption func(*AppBuilder)

// WithGateway overrides the exchange gateway (tests, dry runs).
func WithGateway(gw exchange.Gateway) AppBuilderOption {
	return func(b *AppBuilder) {
		b.gatewayFn = func(config.ExchangeConfig) exchange.Gateway { return gw }
	}
}

func WithProvider(p provider.ModelProvider) AppBuilderOption {
	return func(b *AppBuilder) {
		b.providerFn = func(config.AIConfig) (provider.ModelProvider, error) { return p, nil }
	}
}

func WithJournal(s store.Store) AppBuilderOption {
	return func(b *AppBuilder) {
		b.journalFn = func(config.JournalConfig) (store.Store, error) { return s, nil }
	}
}

// WithSleep replaces every in-cycle wait.
func WithSleep(sleep func(time.Duration)) AppBuilderOption {
	return func(b *AppBuilder) { b.sleep = sleep }
}

// WithConfigPath enables hot reload of the given file while running.
func WithConfigPath(path string) AppBuilderOption {
	return func(b *AppBuilder) { b.cfgPath = strings.TrimSpace(path) }
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		gatewayFn:  buildGateway,
		klinesFn:   buildKlineSource,
		providerFn: buildProvider,
		journalFn:  buildJournal,
		notifierFn: buildNotifier,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Components assembles the exchange, oracle and executor parts without any
// long-running service.
func (b *AppBuilder) Components() (*Components, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	gw := b.gatewayFn(cfg.Exchange)
	klines, err := b.klinesFn(cfg.Market, gw)
	if err != nil {
		return nil, err
	}
	model, err := b.providerFn(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("初始化模型失败: %w", err)
	}
	prompts, err := prompt.Load(cfg.AI.PromptPath, promptLimits(cfg.Trading))
	if err != nil {
		return nil, fmt.Errorf("加载提示词失败: %w", err)
	}
	lots := executor.LotConverter{
		ContractValue: cfg.Trading.ContractMultiplier(),
		MinLot:        cfg.Trading.MinLotSize(),
	}
	tr := cfg.Trading
	ex := cfg.Execution
	return &Components{
		Gateway: gw,
		Klines:  klines,
		Market: market.NewService(market.ServiceParams{
			Klines:     klines,
			Prices:     gw,
			InstID:     tr.InstID,
			Bar:        cfg.Market.KlineBar,
			Limit:      cfg.Market.KlineLimit,
			Indicators: indicatorParams(cfg.Market.Indicators),
		}),
		Positions: position.NewService(gw, gw, tr.InstID, tr.Leverage),
		Oracle: engine.NewOracle(engine.OracleParams{
			Provider:    model,
			Prompts:     prompts,
			Parser:      decision.NewParser(),
			Breaker:     circuit.NewCircuitBreaker(model.ID(), cfg.AI.BreakerThreshold, cfg.AI.BreakerCooldown()),
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
		}),
		Validator: decision.NewValidator(tradingLimits(tr)),
		Lots:      lots,
		Placer: executor.NewOrderPlacer(gw, executor.PlacerConfig{
			InstID:   tr.InstID,
			TdMode:   tr.TdMode,
			Leverage: tr.Leverage,
			Lots:     lots,
		}),
		Entry: executor.NewEntryPriceResolver(gw, tr.InstID, ex.EntryAttempts, ex.EntryDelay(), b.sleep),
		Brackets: executor.NewBracketOrderManager(gw, executor.BracketConfig{
			InstID:       tr.InstID,
			TdMode:       tr.TdMode,
			MaxAttempts:  ex.BracketAttempts,
			SettleDelay:  ex.BracketSettle(),
			RetryDelay:   ex.BracketRetry(),
			CancelPacing: ex.CancelPacing(),
		}, b.sleep),
		Notifier: b.notifierFn(cfg.Notify),
	}, nil
}

// Build 装配完整的交易应用（未启动）。
func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	comps, err := b.Components()
	if err != nil {
		return nil, err
	}
	cfg := b.cfg
	journal, err := b.journalFn(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("初始化日志存储失败: %w", err)
	}

	controller := engine.NewCycleController(engine.CycleParams{
		InstID:    cfg.Trading.InstID,
		Positions: comps.Positions,
		Market:    comps.Market,
		Account:   comps.Gateway,
		Decider:   comps.Oracle,
		Validator: comps.Validator,
		Placer:    comps.Placer,
		Entry:     comps.Entry,
		Brackets:  comps.Brackets,
		Journal:   journal,
		Notifier:  comps.Notifier,
		Intervals: cycleIntervals(cfg.Schedule),
		FillWait:  cfg.Execution.FillWait(),
		Sleep:     b.sleep,
	})

	var httpSrv *livehttp.Server
	if addr := strings.TrimSpace(cfg.App.HTTPAddr); addr != "" {
		logPaths := map[string]string{}
		if p := strings.TrimSpace(cfg.App.LogPath); p != "" {
			logPaths["app"] = p
		}
		if p := strings.TrimSpace(cfg.App.LLMLog); p != "" {
			logPaths["llm"] = p
		}
		var reader livehttp.JournalSource
		if journal != nil {
			reader = journal
		}
		httpSrv, err = livehttp.NewServer(livehttp.ServerConfig{
			Addr:        addr,
			Status:      controller,
			Journal:     reader,
			LogPaths:    logPaths,
			CORSOrigins: cfg.App.HTTPCORSOrigins,
		})
		if err != nil {
			return nil, err
		}
	}

	return &App{
		cfg:        cfg,
		cfgPath:    b.cfgPath,
		holder:     config.NewHolder(cfg),
		comps:      comps,
		controller: controller,
		journal:    journal,
		liveHTTP:   httpSrv,
		Summary:    newStartupSummary(cfg, comps),
	}, nil
}

func buildGateway(c config.ExchangeConfig) exchange.Gateway {
	return okx.New(okx.Config{
		BaseURL:    c.BaseURL,
		APIKey:     c.APIKey,
		SecretKey:  c.SecretKey,
		Passphrase: c.Passphrase,
		Simulated:  c.Simulated,
		Timeout:    c.Timeout(),
	})
}

func buildKlineSource(c config.MarketConfig, gw exchange.Gateway) (marketdata.Source, error) {
	if strings.EqualFold(c.Source, "binance") {
		src, err := binance.New(binance.Config{RESTBaseURL: c.BinanceRESTURL})
		if err != nil {
			return nil, fmt.Errorf("初始化 Binance K 线源失败: %w", err)
		}
		logger.Infof("K 线源: binance (%s)", c.BinanceRESTURL)
		return src, nil
	}
	return gw, nil
}

func buildProvider(c config.AIConfig) (provider.ModelProvider, error) {
	return provider.BuildFromConfig(provider.ModelCfg{
		Provider: c.Provider,
		APIURL:   c.APIURL,
		APIKey:   c.APIKey,
		Model:    c.Model,
	}, c.Timeout())
}

func buildJournal(c config.JournalConfig) (store.Store, error) {
	path := strings.TrimSpace(c.Path)
	if path == "" {
		logger.Warnf("journal.path 未配置，周期日志不落库")
		return nil, nil
	}
	st, err := sqlite.NewSqliteStore(path)
	if err != nil {
		return nil, err
	}
	logger.Infof("✓ 周期日志: %s", path)
	return st, nil
}

func buildNotifier(c config.NotifyConfig) notifier.TextNotifier {
	if !c.Telegram.Enabled {
		return notifier.Nop{}
	}
	return notifier.NewTelegram(c.Telegram.BotToken, c.Telegram.ChatID)
}

func promptLimits(t config.TradingConfig) prompt.Limits {
	return prompt.Limits{
		InstID:   t.InstID,
		Leverage: t.Leverage,
		MinOrder: t.MinOrder().String(),
		MaxOrder: t.MaxOrder().String(),
	}
}

func tradingLimits(t config.TradingConfig) decision.Limits {
	return decision.Limits{MinOrder: t.MinOrder(), MaxOrder: t.MaxOrder()}
}

func cycleIntervals(s config.ScheduleConfig) engine.Intervals {
	return engine.Intervals{Idle: s.Idle(), Exposed: s.Exposed()}
}

func indicatorParams(c config.IndicatorConfig) market.IndicatorParams {
	return market.IndicatorParams{
		Enabled:  c.Enabled,
		Bar:      c.Bar,
		Lookback: c.Lookback,
		Settings: indicator.Settings{
			EMAFast:   c.EMAFast,
			EMASlow:   c.EMASlow,
			RSIPeriod: c.RSIPeriod,
			ATRPeriod: c.ATRPeriod,
		},
	}
}
