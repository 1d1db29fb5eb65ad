package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/shopspring/decimal"

	"pos-payment-system/internal/core/domain"
)

// paymentPayload matches the body of POST /api/v1/payments.
type paymentPayload struct {
	CustomerID     string            `json:"customerId"`
	Price          string            `json:"price"`
	PriceModifier  json.Number       `json:"priceModifier"`
	PaymentMethod  string            `json:"paymentMethod"`
	DateTime       string            `json:"datetime"`
	AdditionalItem map[string]string `json:"additionalItem,omitempty"`
}

func main() {
	// 1. Setting up flags
	baseURL := flag.String("target", "http://localhost:8080", "Gateway base URL")
	terminalID := flag.String("terminal", "till-1", "Terminal id used to obtain a token")
	secret := flag.String("secret", "", "Terminal secret")
	rps := flag.Int("rps", 20, "Requests per second")
	flag.Parse()

	if *rps <= 0 {
		log.Fatalf("rps must be positive, got %d", *rps)
	}
	log.Printf("Starting generator: target=%s, rps=%d\n", *baseURL, *rps)

	client := &http.Client{Timeout: 5 * time.Second}
	token, err := fetchToken(client, *baseURL, *terminalID, *secret)
	if err != nil {
		log.Fatalf("failed to obtain token: %v", err)
	}

	// 2. Managing the request frequency via ticker
	ticker := time.NewTicker(time.Second / time.Duration(*rps))
	defer ticker.Stop()

	// 3. Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// 4. Main loop
	for {
		select {
		case <-ticker.C:
			payload := newPaymentPayload(rng, time.Now().UTC())
			go sendPayment(client, *baseURL+"/api/v1/payments", token, payload)
		case <-ctx.Done():
			log.Println("Shutting down generator...")
			return
		}
	}
}

// newPaymentPayload builds a payment that passes validation: the modifier
// lies inside the method's range and every required field is filled.
func newPaymentPayload(rng *rand.Rand, at time.Time) paymentPayload {
	methods := domain.AllPaymentMethods()
	method := methods[rng.Intn(len(methods))]
	policy := domain.PolicyFor(method)

	span := policy.MaxModifier.Sub(policy.MinModifier)
	modifier := policy.MinModifier.Add(span.Mul(decimal.NewFromFloat(rng.Float64()))).Truncate(2)

	extra := map[string]string{}
	for _, field := range policy.RequiredFields() {
		switch field {
		case domain.FieldLast4:
			cc := faker.CCNumber()
			extra[field] = cc[len(cc)-4:]
		case domain.FieldCourier:
			couriers := domain.Couriers()
			extra[field] = string(couriers[rng.Intn(len(couriers))])
		case domain.FieldBank:
			extra[field] = strings.ToUpper(faker.Word()) + " BANK"
		case domain.FieldAccountNumber:
			extra[field] = fmt.Sprintf("%08d", rng.Intn(100_000_000))
		case domain.FieldChequeNumber:
			extra[field] = fmt.Sprintf("CHQ-%06d", rng.Intn(1_000_000))
		}
	}

	return paymentPayload{
		CustomerID:     faker.UUIDDigit(),
		Price:          decimal.New(int64(rng.Intn(100_000)+1), -2).StringFixed(2),
		PriceModifier:  json.Number(modifier.StringFixed(2)),
		PaymentMethod:  string(method),
		DateTime:       at.Format(time.RFC3339),
		AdditionalItem: extra,
	}
}

func fetchToken(client *http.Client, baseURL, terminalID, secret string) (string, error) {
	body, err := json.Marshal(map[string]string{"terminalId": terminalID, "secret": secret})
	if err != nil {
		return "", err
	}
	resp, err := client.Post(baseURL+"/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func sendPayment(client *http.Client, url, token string, payload paymentPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: failed to marshal request: %v", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("ERROR: failed to build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("ERROR: failed to send request: %v", err)
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body : %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		log.Printf("WARN: %s payment got status %d", payload.PaymentMethod, resp.StatusCode)
	} else {
		log.Printf("INFO: %s payment of %s accepted", payload.PaymentMethod, payload.Price)
	}
}
