package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Gerador de carga para o fulfillment-service: semeia itens da loja e dispara
// pedidos concorrentes para medir os outcomes do workflow sob contenção.

type orderLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type submitOrderRequest struct {
	Lines []orderLine `json:"lines"`
}

type workflowOutcome struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Reason  string `json:"reason"`
}

func main() {
	baseURL := getEnv("FULFILLMENT_URL", "http://localhost:8080")
	orders := getEnvInt("ORDERS", 100)
	concurrency := getEnvInt("CONCURRENCY", 10)
	initialStock := getEnvInt("INITIAL_STOCK", 150)

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2)

	itemID := "sku-" + uuid.New().String()[:8]

	// Semeia o item que todos os pedidos vão disputar
	resp, err := client.R().
		SetBody(map[string]any{"item_id": itemID, "quantity": initialStock}).
		Post("/api/store-items")
	if err != nil {
		log.Fatalf("❌ Failed to seed store item: %v", err)
	}
	if resp.IsError() {
		log.Fatalf("❌ Failed to seed store item: %s", resp.Status())
	}
	log.Printf("🌱 Seeded item %s with stock %d", itemID, initialStock)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		totals = make(map[string]int)
	)

	sem := make(chan struct{}, concurrency)
	start := time.Now()

	for i := 0; i < orders; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var outcome workflowOutcome
			resp, err := client.R().
				SetBody(submitOrderRequest{Lines: []orderLine{{ItemID: itemID, Quantity: 1}}}).
				SetResult(&outcome).
				Post("/api/orders")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				totals["transport_error"]++
			case resp.IsError():
				totals[fmt.Sprintf("http_%d", resp.StatusCode())]++
			default:
				totals[outcome.Status]++
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	log.Printf("🏁 %d orders in %s (%.1f orders/s)", orders, elapsed, float64(orders)/elapsed.Seconds())
	for status, count := range totals {
		log.Printf("   %-20s %d", status, count)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using default %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
