package scheduler

import (
	"context"
	"time"

	"ethpilot/internal/logger"
)

// DefaultFallback is used when a task returns a non-positive interval.
const DefaultFallback = 30 * time.Second

// Task runs one cycle and returns how long to wait before the next one.
type Task func(ctx context.Context) time.Duration

// DynamicScheduler runs a task strictly sequentially, sleeping for whatever
// interval the previous run returned. Cancellation is honoured only between
// runs: each run gets a context that is not cancelled with the parent.
type DynamicScheduler struct {
	Name     string
	Fallback time.Duration

	ctx   context.Context
	nowFn func() time.Time
}

func NewDynamicScheduler(ctx context.Context) *DynamicScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &DynamicScheduler{
		Fallback: DefaultFallback,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

// Start blocks until the context is cancelled.
func (s *DynamicScheduler) Start(task Task) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("DynamicScheduler: task is nil, exit")
		return
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}
	if s.Fallback <= 0 {
		s.Fallback = DefaultFallback
	}
	prefix := "DynamicScheduler"
	if s.Name != "" {
		prefix = prefix + "[" + s.Name + "]"
	}
	startAt := s.nowFn().UTC()
	logger.Infof("%s: started at=%s fallback=%s", prefix, startAt.Format(time.RFC3339), s.Fallback)

	runs := 0
	for {
		if s.ctx.Err() != nil {
			logger.Infof("%s: ctx done, exit after %d runs", prefix, runs)
			return
		}
		wait := task(context.WithoutCancel(s.ctx))
		runs++
		if wait <= 0 {
			logger.Warnf("%s: task returned interval=%s, use fallback %s", prefix, wait, s.Fallback)
			wait = s.Fallback
		}
		now := s.nowFn().UTC()
		logger.Infof("%s: 等待 %s 后继续检查 下次执行=%s | runs=%d uptime=%s",
			prefix, wait, now.Add(wait).Format(time.RFC3339), runs, now.Sub(startAt).Truncate(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logger.Infof("%s: ctx done, exit after %d runs", prefix, runs)
			return
		case <-timer.C:
		}
	}
}
