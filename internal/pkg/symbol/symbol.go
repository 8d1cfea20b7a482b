// Package symbol converts between the pair spellings used by OKX (instId),
// Binance futures and the config file.
package symbol

import (
	"strings"
)

// Symbol 交易对；Swap 表示永续合约。
type Symbol struct {
	Base  string
	Quote string
	Swap  bool
}

func (s Symbol) Valid() bool {
	return s.Base != "" && s.Quote != ""
}

// Binance renders ETHUSDT.
func (s Symbol) Binance() string {
	if !s.Valid() {
		return ""
	}
	return s.Base + s.Quote
}

// OKX renders the instId, e.g. ETH-USDT-SWAP.
func (s Symbol) OKX() string {
	if !s.Valid() {
		return ""
	}
	id := s.Base + "-" + s.Quote
	if s.Swap {
		id += "-SWAP"
	}
	return id
}

var quoteCurrencies = []string{"USDT", "USDC", "USD"}

// Parse accepts ETH/USDT, ETHUSDT, ETH/USDT:USDT and OKX instIds (ETH-USDT-SWAP).
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}
	if parts := strings.Split(s, "-"); len(parts) >= 2 {
		return Symbol{
			Base:  strings.TrimSpace(parts[0]),
			Quote: strings.TrimSpace(parts[1]),
			Swap:  len(parts) >= 3 && parts[2] == "SWAP",
		}
	}
	swap := false
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
		swap = true
	}
	if base, quote, ok := strings.Cut(s, "/"); ok {
		return Symbol{Base: strings.TrimSpace(base), Quote: strings.TrimSpace(quote), Swap: swap}
	}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{Base: s[:len(s)-len(quote)], Quote: quote, Swap: swap}
		}
	}
	return Symbol{}
}

// ToBinance maps any accepted form to the futures symbol; unparseable input
// is upper-cased and returned as is.
func ToBinance(s string) string {
	if sym := Parse(s); sym.Valid() {
		return sym.Binance()
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// ToOKXSwap maps any accepted form to the perpetual-swap instId.
func ToOKXSwap(s string) string {
	sym := Parse(s)
	if !sym.Valid() {
		return strings.ToUpper(strings.TrimSpace(s))
	}
	sym.Swap = true
	return sym.OKX()
}
