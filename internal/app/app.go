package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ethpilot/internal/agent/engine"
	"ethpilot/internal/config"
	"ethpilot/internal/logger"
	"ethpilot/internal/scheduler"
	"ethpilot/internal/store"
	livehttp "ethpilot/internal/transport/http/live"
)

// App 负责应用级编排：交易循环、状态接口与配置热更新。
type App struct {
	cfg        *config.Config
	cfgPath    string
	holder     *config.Holder
	applied    *config.Config
	comps      *Components
	controller *engine.CycleController
	journal    store.Store
	liveHTTP   *livehttp.Server
	Summary    *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）。cfgPath 非空时运行期间监听配置变更。
func NewApp(ctx context.Context, cfg *config.Config, cfgPath string) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(ctx, cfg, cfgPath)
}

// Run 阻塞运行直到 ctx 取消；进行中的周期总会跑完。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil || a.controller == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	defer a.Close()

	if a.cfgPath != "" {
		if err := config.Watch(a.cfgPath, a.holder); err != nil {
			logger.Warnf("配置热更新未启用: %v", err)
		}
	}

	group, ctx := errgroup.WithContext(ctx)
	if a.liveHTTP != nil {
		// 状态接口是可选的，启动失败不影响交易循环。
		group.Go(func() error {
			if err := a.liveHTTP.Start(ctx); err != nil {
				logger.Errorf("live http server error, 状态接口停用: %v", err)
			}
			return nil
		})
	}
	group.Go(func() error {
		sched := scheduler.NewDynamicScheduler(ctx)
		sched.Name = a.cfg.Trading.InstID
		sched.Fallback = a.cfg.Schedule.Exposed()
		sched.Start(func(runCtx context.Context) time.Duration {
			a.applyReload()
			return a.controller.RunCycle(runCtx)
		})
		return nil
	})
	return group.Wait()
}

// applyReload 在两轮之间应用最新配置：只更新间隔与下单量边界。
func (a *App) applyReload() {
	cur := a.holder.Current()
	if cur == nil || cur == a.applied {
		return
	}
	if a.applied != nil {
		if cur.Trading.InstID != a.applied.Trading.InstID {
			logger.Warnf("trading.inst_id 变更需要重启，忽略: %s -> %s", a.applied.Trading.InstID, cur.Trading.InstID)
		}
		logger.Infof("应用新配置: idle=%s exposed=%s order=[%s, %s]",
			cur.Schedule.Idle(), cur.Schedule.Exposed(), cur.Trading.MinOrder(), cur.Trading.MaxOrder())
	}
	a.controller.SetIntervals(cycleIntervals(cur.Schedule))
	a.comps.Validator.SetLimits(tradingLimits(cur.Trading))
	a.applied = cur
}

// Close releases the journal.
func (a *App) Close() {
	if a == nil || a.journal == nil {
		return
	}
	if err := a.journal.Close(); err != nil {
		logger.Warnf("关闭周期日志失败: %v", err)
	}
}

// Controller exposes the cycle controller (status, tests).
func (a *App) Controller() *engine.CycleController {
	if a == nil {
		return nil
	}
	return a.controller
}

func (a *App) Components() *Components {
	if a == nil {
		return nil
	}
	return a.comps
}
