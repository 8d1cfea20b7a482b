package market

import "context"

// Source 提供历史 K 线；symbol 为 OKX instId（如 ETH-USDT-SWAP），interval 为 OKX bar（如 5m、1H）。
// 返回结果按时间升序。
type Source interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}
