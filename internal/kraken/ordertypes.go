package kraken

import (
	"net/url"
	"strconv"
)

// OrderSide enumerates order directions.
type OrderSide string

const (
	// SideBuy opens or adds to a long.
	SideBuy OrderSide = "buy"
	// SideSell opens or adds to a short.
	SideSell OrderSide = "sell"
)

// OrderType enumerates the order types the futures API accepts.
type OrderType string

const (
	OrderTypeLimit      OrderType = "lmt"
	OrderTypeMarket     OrderType = "mkt"
	OrderTypeStop       OrderType = "stp"
	OrderTypeTakeProfit OrderType = "take_profit"
	OrderTypeStopLoss   OrderType = "stop_loss"
	OrderTypePostOnly   OrderType = "post"
)

// OrderParams is the parameter set for sendorder. Zero-valued optional fields
// are omitted from the encoded form.
type OrderParams struct {
	OrderType  OrderType
	Symbol     string
	Side       OrderSide
	Size       float64
	LimitPrice float64
	StopPrice  float64
	ReduceOnly bool
	PostOnly   bool
	CliOrdID   string
}

// Values form-encodes the parameters in the exact shape the exchange signs
// and receives.
func (p OrderParams) Values() url.Values {
	v := url.Values{}
	v.Set("orderType", string(p.OrderType))
	v.Set("symbol", p.Symbol)
	v.Set("side", string(p.Side))
	v.Set("size", formatFloat(p.Size))
	if p.LimitPrice != 0 {
		v.Set("limitPrice", formatFloat(p.LimitPrice))
	}
	if p.StopPrice != 0 {
		v.Set("stopPrice", formatFloat(p.StopPrice))
	}
	if p.ReduceOnly {
		v.Set("reduceOnly", "true")
	}
	if p.PostOnly {
		v.Set("postOnly", "true")
	}
	if p.CliOrdID != "" {
		v.Set("cliOrdId", p.CliOrdID)
	}
	return v
}

// LimitOrder builds parameters for a limit order.
func LimitOrder(symbol string, side OrderSide, size, price float64) OrderParams {
	return OrderParams{OrderType: OrderTypeLimit, Symbol: symbol, Side: side, Size: size, LimitPrice: price}
}

// MarketOrder builds parameters for a market order.
func MarketOrder(symbol string, side OrderSide, size float64) OrderParams {
	return OrderParams{OrderType: OrderTypeMarket, Symbol: symbol, Side: side, Size: size}
}

// StopOrder builds parameters for a stop order: stop-limit when a limit price
// is given, stop-market otherwise.
func StopOrder(symbol string, side OrderSide, size, stopPrice, limitPrice float64) OrderParams {
	p := OrderParams{OrderType: OrderTypeMarket, Symbol: symbol, Side: side, Size: size, StopPrice: stopPrice}
	if limitPrice != 0 {
		p.OrderType = OrderTypeStop
		p.LimitPrice = limitPrice
	}
	return p
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
