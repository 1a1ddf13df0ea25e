// Binary apicheck walks through the Kraken Futures API to verify credentials
// and connectivity: public endpoints first, then signed private reads, then a
// dry-run order construction. It never sends an order.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"signalbot-go/internal/kraken"
)

func main() {
	_ = godotenv.Load() // best-effort

	apiKey := os.Getenv("KRAKEN_API_KEY")
	apiSecret := os.Getenv("KRAKEN_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		log.Fatal("set KRAKEN_API_KEY and KRAKEN_API_SECRET")
	}
	encoding, err := kraken.ParseSecretEncoding(os.Getenv("KRAKEN_SECRET_ENCODING"))
	if err != nil {
		log.Fatalf("secret encoding: %v", err)
	}
	signer, err := kraken.NewSigner(apiKey, apiSecret, encoding)
	if err != nil {
		log.Fatalf("credentials: %v", err)
	}
	client := kraken.NewClient(signer, zerolog.New(os.Stderr).Level(zerolog.WarnLevel),
		kraken.WithBaseURL(getEnv("KRAKEN_BASE_URL", kraken.DefaultBaseURL)))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("--- Public GET (tickers) ---")
	tickers, err := client.Tickers(ctx)
	if err != nil {
		log.Fatalf("tickers: %v", err)
	}
	fmt.Printf("ok, %d bytes\n", len(tickers))

	fmt.Println("\n--- Public GET (instruments) ---")
	if _, err := client.Instruments(ctx); err != nil {
		log.Fatalf("instruments: %v", err)
	}
	fmt.Println("ok")

	fmt.Println("\n--- Private GET (accounts) ---")
	accounts, err := client.Accounts(ctx)
	if err != nil {
		log.Fatalf("accounts: %v", err)
	}
	printJSON(accounts)

	fmt.Println("\n--- Private GET (open orders) ---")
	if _, err := client.OpenOrders(ctx); err != nil {
		log.Fatalf("open orders: %v", err)
	}
	fmt.Println("ok")

	fmt.Println("\n--- Private GET (notifications) ---")
	if _, err := client.Notifications(ctx); err != nil {
		log.Fatalf("notifications: %v", err)
	}
	fmt.Println("ok")

	fmt.Println("\n--- Order construction (not sent) ---")
	// Far from market price so it could never fill even if submitted.
	order := kraken.LimitOrder("pi_xbtusd", kraken.SideBuy, 0.001, 1000)
	fmt.Println(order.Values().Encode())
}

func printJSON(raw json.RawMessage) {
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		fmt.Printf("%s\n", raw)
		return
	}
	pretty, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(pretty))
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
