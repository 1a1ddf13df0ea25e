package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const (
	pathInstruments          = "/derivatives/api/v3/instruments"
	pathTickers              = "/derivatives/api/v3/tickers"
	pathOrderbook            = "/derivatives/api/v3/orderbook"
	pathHistory              = "/derivatives/api/v3/history"
	pathAccounts             = "/derivatives/api/v3/accounts"
	pathSendOrder            = "/derivatives/api/v3/sendorder"
	pathEditOrder            = "/derivatives/api/v3/editorder"
	pathCancelOrder          = "/derivatives/api/v3/cancelorder"
	pathCancelAllOrders      = "/derivatives/api/v3/cancelallorders"
	pathCancelAllOrdersAfter = "/derivatives/api/v3/cancelallordersafter"
	pathBatchOrder           = "/derivatives/api/v3/batchorder"
	pathOpenOrders           = "/derivatives/api/v3/openorders"
	pathOpenPositions        = "/derivatives/api/v3/openpositions"
	pathRecentOrders         = "/derivatives/api/v3/recentorders"
	pathFills                = "/derivatives/api/v3/fills"
	pathTransfers            = "/derivatives/api/v3/transfers"
	pathNotifications        = "/derivatives/api/v3/notifications"
	// Account log lives on the history API and has no /derivatives prefix.
	pathAccountLog = "/api/history/v2/account-log"
)

// Instruments returns every listed instrument with its specification.
func (c *Client) Instruments(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, pathInstruments, nil)
}

// Tickers returns a market data snapshot for all instruments.
func (c *Client) Tickers(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, pathTickers, nil)
}

// Orderbook returns the full book for a symbol.
func (c *Client) Orderbook(ctx context.Context, symbol string) (json.RawMessage, error) {
	return c.get(ctx, pathOrderbook, url.Values{"symbol": {symbol}})
}

// History returns recent trade history for a symbol; lastTime paginates.
func (c *Client) History(ctx context.Context, symbol, lastTime string) (json.RawMessage, error) {
	params := url.Values{"symbol": {symbol}}
	if lastTime != "" {
		params.Set("lastTime", lastTime)
	}
	return c.get(ctx, pathHistory, params)
}

// Accounts returns key account information.
func (c *Client) Accounts(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, pathAccounts, nil)
}

// SendStatus is the exchange's acknowledgment of an order placement.
type SendStatus struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// OrderResult wraps the sendorder/editorder response fields the bot acts on.
type OrderResult struct {
	Result     string     `json:"result"`
	SendStatus SendStatus `json:"sendStatus"`
}

// SendOrder places a new order.
func (c *Client) SendOrder(ctx context.Context, params OrderParams) (*OrderResult, error) {
	raw, err := c.post(ctx, pathSendOrder, params.Values())
	if err != nil {
		return nil, err
	}
	var out OrderResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode send order: %w", err)
	}
	return &out, nil
}

// EditOrder amends price and/or size of an existing order.
func (c *Client) EditOrder(ctx context.Context, orderID string, size, limitPrice float64) (*OrderResult, error) {
	params := url.Values{"orderId": {orderID}}
	if size > 0 {
		params.Set("size", formatFloat(size))
	}
	if limitPrice > 0 {
		params.Set("limitPrice", formatFloat(limitPrice))
	}
	raw, err := c.post(ctx, pathEditOrder, params)
	if err != nil {
		return nil, err
	}
	var out OrderResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode edit order: %w", err)
	}
	return &out, nil
}

// CancelOrder cancels a single order by id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return c.post(ctx, pathCancelOrder, url.Values{"order_id": {orderID}})
}

// CancelAllOrders cancels every open order, optionally scoped to a symbol.
func (c *Client) CancelAllOrders(ctx context.Context, symbol string) (json.RawMessage, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	return c.post(ctx, pathCancelAllOrders, params)
}

// CancelAllOrdersAfter arms a dead-man switch that cancels everything after
// the timeout (seconds) unless re-armed.
func (c *Client) CancelAllOrdersAfter(ctx context.Context, timeout int) (json.RawMessage, error) {
	return c.post(ctx, pathCancelAllOrdersAfter, url.Values{"timeout": {strconv.Itoa(timeout)}})
}

// BatchOrder submits a batch of send/cancel/edit commands as a JSON document.
func (c *Client) BatchOrder(ctx context.Context, commands []map[string]any) (json.RawMessage, error) {
	doc, err := json.Marshal(map[string]any{"batchOrder": commands})
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	return c.post(ctx, pathBatchOrder, url.Values{"json": {string(doc)}})
}

// OpenOrders returns all open orders.
func (c *Client) OpenOrders(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, pathOpenOrders, nil)
}

// OpenPositions returns all open positions.
func (c *Client) OpenPositions(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, pathOpenPositions, nil)
}

// RecentOrders returns recent orders, optionally filtered by symbol.
func (c *Client) RecentOrders(ctx context.Context, symbol string) (json.RawMessage, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	return c.get(ctx, pathRecentOrders, params)
}

// Fills returns executions, optionally filtered by symbol and paginated by
// lastFillTime.
func (c *Client) Fills(ctx context.Context, symbol, lastFillTime string) (json.RawMessage, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	if lastFillTime != "" {
		params.Set("lastFillTime", lastFillTime)
	}
	return c.get(ctx, pathFills, params)
}

// AccountLog returns the account activity log.
func (c *Client) AccountLog(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, pathAccountLog, nil)
}

// Transfers returns wallet transfer history, paginated by lastTransferTime.
func (c *Client) Transfers(ctx context.Context, lastTransferTime string) (json.RawMessage, error) {
	params := url.Values{}
	if lastTransferTime != "" {
		params.Set("lastTransferTime", lastTransferTime)
	}
	return c.get(ctx, pathTransfers, params)
}

// Notifications returns system notifications.
func (c *Client) Notifications(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, pathNotifications, nil)
}
