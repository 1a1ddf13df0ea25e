package kraken

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	signer, err := NewSigner("test-key", testSecretB64, EncodingBase64)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return NewClient(signer, zerolog.Nop(), WithBaseURL(server.URL), WithRateLimit(1000, 1000))
}

func TestClientSignsGetRequest(t *testing.T) {
	verifier, _ := NewSigner("test-key", testSecretB64, EncodingBase64)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("APIKey") != "test-key" {
			t.Errorf("missing APIKey header")
		}
		nonce := r.Header.Get("Nonce")
		if nonce == "" {
			t.Errorf("missing Nonce header")
		}
		want := verifier.Sign("/derivatives/api/v3/accounts", nonce, "")
		if got := r.Header.Get("Authent"); got != want {
			t.Errorf("Authent = %s, want %s", got, want)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"result":"success","accounts":{}}`))
	})
	if _, err := client.Accounts(context.Background()); err != nil {
		t.Fatalf("Accounts: %v", err)
	}
}

func TestClientSignsPostBody(t *testing.T) {
	verifier, _ := NewSigner("test-key", testSecretB64, EncodingBase64)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		// The signed bytes must match the transmitted bytes exactly.
		want := verifier.Sign("/derivatives/api/v3/sendorder", r.Header.Get("Nonce"), string(body))
		if got := r.Header.Get("Authent"); got != want {
			t.Errorf("Authent does not cover transmitted body")
		}
		_, _ = w.Write([]byte(`{"result":"success","sendStatus":{"order_id":"abc-123","status":"placed"}}`))
	})

	res, err := client.SendOrder(context.Background(), LimitOrder("pi_xbtusd", SideBuy, 0.001, 1000))
	if err != nil {
		t.Fatalf("SendOrder: %v", err)
	}
	if res.SendStatus.OrderID != "abc-123" || res.SendStatus.Status != "placed" {
		t.Fatalf("unexpected send status %+v", res.SendStatus)
	}
}

func TestClientAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"error","errors":["apiLimitExceeded"]}`))
	})
	_, err := client.OpenOrders(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if len(apiErr.Errors) != 1 || apiErr.Errors[0] != "apiLimitExceeded" {
		t.Fatalf("unexpected errors %v", apiErr.Errors)
	}
}

func TestClientHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	})
	_, err := client.Tickers(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", apiErr.Status)
	}
}

func TestClientGetQueryParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "pi_xbtusd" {
			t.Errorf("symbol = %q", got)
		}
		if got := r.URL.Query().Get("lastFillTime"); got != "2026-01-01T00:00:00Z" {
			t.Errorf("lastFillTime = %q", got)
		}
		_, _ = w.Write([]byte(`{"result":"success","fills":[]}`))
	})
	if _, err := client.Fills(context.Background(), "pi_xbtusd", "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("Fills: %v", err)
	}
}

func TestOrderParamBuilders(t *testing.T) {
	limit := LimitOrder("pi_xbtusd", SideBuy, 0.001, 1000)
	limit.ReduceOnly = true
	limit.PostOnly = true
	v := limit.Values()
	if v.Get("orderType") != "lmt" || v.Get("limitPrice") != "1000" || v.Get("reduceOnly") != "true" || v.Get("postOnly") != "true" {
		t.Fatalf("unexpected limit params %v", v)
	}

	market := MarketOrder("pi_xbtusd", SideSell, 0.5).Values()
	if market.Get("orderType") != "mkt" || market.Get("limitPrice") != "" || market.Get("stopPrice") != "" {
		t.Fatalf("unexpected market params %v", market)
	}

	stop := StopOrder("pi_xbtusd", SideSell, 0.5, 95000, 0).Values()
	if stop.Get("orderType") != "mkt" || stop.Get("stopPrice") != "95000" {
		t.Fatalf("stop without limit should be mkt: %v", stop)
	}
	stopLimit := StopOrder("pi_xbtusd", SideSell, 0.5, 95000, 94900).Values()
	if stopLimit.Get("orderType") != "stp" || stopLimit.Get("limitPrice") != "94900" {
		t.Fatalf("stop with limit should be stp: %v", stopLimit)
	}
}
