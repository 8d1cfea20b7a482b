package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"ethpilot/internal/logger"
	"ethpilot/internal/market"
	symbolpkg "ethpilot/internal/pkg/symbol"
)

const (
	DefaultRESTURL  = "https://fapi.binance.com"
	defaultTimeout  = 15 * time.Second
	maxHistoryLimit = 1500
)

// Config 只需要 REST 地址；K 线为公开接口，无需密钥。
type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

// Source 基于 go-binance SDK 的 USDT 永续 K 线源，实现 market.Source。
type Source struct {
	cfg    Config
	client *futures.Client
	now    func() time.Time
}

func New(cfg Config) (*Source, error) {
	cfg.RESTBaseURL = strings.TrimRight(strings.TrimSpace(cfg.RESTBaseURL), "/")
	if cfg.RESTBaseURL == "" {
		cfg.RESTBaseURL = DefaultRESTURL
	}
	if !strings.HasPrefix(cfg.RESTBaseURL, "http://") && !strings.HasPrefix(cfg.RESTBaseURL, "https://") {
		return nil, fmt.Errorf("binance rest url must be http(s): %q", cfg.RESTBaseURL)
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultTimeout
	}
	client := futures.NewClient("", "")
	client.BaseURL = cfg.RESTBaseURL
	client.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
	return &Source{cfg: cfg, client: client, now: time.Now}, nil
}

// FetchHistory accepts OKX-style instId and bar and drops the still-forming
// last bar, matching what the exchange would report as closed.
func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	cleanSymbol := symbolpkg.ToBinance(symbol)

	iv, ok := Interval(interval)
	if !ok {
		return nil, fmt.Errorf("unsupported interval %q", interval)
	}
	kls, err := s.client.NewKlinesService().Symbol(cleanSymbol).Interval(iv).Limit(limit).Do(ctx)
	if err != nil {
		logger.Warnf("binance klines %s %s failed: %v", cleanSymbol, iv, err)
		return nil, fmt.Errorf("binance klines %s %s: %w", cleanSymbol, iv, err)
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	return dropUnclosed(out, s.now()), nil
}

// Interval maps an OKX bar (5m, 1H, 4H, 1D) to Binance's lower-case form.
func Interval(bar string) (string, bool) {
	bar = strings.TrimSpace(bar)
	if len(bar) < 2 {
		return "", false
	}
	n, err := strconv.Atoi(bar[:len(bar)-1])
	if err != nil || n <= 0 {
		return "", false
	}
	switch unit := bar[len(bar)-1:]; unit {
	case "m":
		return fmt.Sprintf("%dm", n), true
	case "H", "h":
		return fmt.Sprintf("%dh", n), true
	case "D", "d":
		return fmt.Sprintf("%dd", n), true
	case "W", "w":
		return fmt.Sprintf("%dw", n), true
	}
	return "", false
}

func dropUnclosed(cs []market.Candle, now time.Time) []market.Candle {
	if len(cs) == 0 {
		return cs
	}
	last := cs[len(cs)-1]
	if last.CloseTime > 0 && last.CloseTime >= now.UnixMilli() {
		return cs[:len(cs)-1]
	}
	return cs
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
