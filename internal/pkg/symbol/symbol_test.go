package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := map[string]Symbol{
		"ETH-USDT-SWAP": {Base: "ETH", Quote: "USDT", Swap: true},
		"eth-usdt":      {Base: "ETH", Quote: "USDT"},
		"ETH/USDT":      {Base: "ETH", Quote: "USDT"},
		"ETH/USDT:USDT": {Base: "ETH", Quote: "USDT", Swap: true},
		"ETHUSDT":       {Base: "ETH", Quote: "USDT"},
		"":              {},
		"USDT":          {},
	}
	for in, want := range cases {
		assert.Equal(t, want, Parse(in), in)
	}
}

func TestConversions(t *testing.T) {
	assert.Equal(t, "ETHUSDT", ToBinance("ETH-USDT-SWAP"))
	assert.Equal(t, "ETHUSDT", ToBinance("eth/usdt"))
	assert.Equal(t, "GARBAGE", ToBinance(" garbage "))
	assert.Equal(t, "ETH-USDT-SWAP", ToOKXSwap("ETH/USDT"))
	assert.Equal(t, "ETH-USDT-SWAP", ToOKXSwap("ethusdt"))
	assert.Equal(t, "ETH-USDT-SWAP", ToOKXSwap("ETH-USDT-SWAP"))
	assert.False(t, Parse("garbage").Valid())
}
