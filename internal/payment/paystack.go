package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"gidimart-be/internal/logger"

	"go.uber.org/zap"
)

const (
	paystackBaseURL = "https://api.paystack.co"
	requestTimeout  = 10 * time.Second
)

var ErrMissingCredentials = errors.New("paystack secret key is not configured")

type Gateway interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifyData, error)
	VerifyWebhookSignature(body []byte, signature string) bool
}

type paystackGateway struct {
	secretKey     string
	webhookSecret string
	callbackURL   string
	baseURL       string
	httpClient    *http.Client
}

// NewPaystackGateway fails fast when credentials are absent rather than
// letting the first checkout discover it.
func NewPaystackGateway(secretKey, webhookSecret, callbackURL string) (Gateway, error) {
	if secretKey == "" {
		return nil, ErrMissingCredentials
	}
	if webhookSecret == "" {
		webhookSecret = secretKey
	}

	return &paystackGateway{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		callbackURL:   callbackURL,
		baseURL:       paystackBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

// envelope is the single response shape accepted from the provider. Anything
// that does not parse into it is rejected at the boundary.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (g *paystackGateway) InitializeTransaction(ctx context.Context, in InitializeRequest) (*InitializeResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", in.OrderID),
		zap.String("reference", in.Reference),
		zap.Int64("amount_minor", in.AmountMinor),
	)

	body := map[string]interface{}{
		"amount":       in.AmountMinor,
		"email":        in.Email,
		"reference":    in.Reference,
		"callback_url": in.CallbackURL,
		"metadata": map[string]interface{}{
			"orderId": in.OrderID,
		},
	}
	if len(in.Channels) > 0 {
		body["channels"] = in.Channels
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/transaction/initialize", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("failed creating initialize request", zap.Error(err))
		return nil, err
	}
	g.authorize(req)
	req.Header.Add("Content-Type", "application/json")

	log.Info("initializing paystack transaction")

	env, err := g.do(req)
	if err != nil {
		log.Error("paystack initialize failed", zap.Error(err))
		return nil, err
	}

	var res InitializeResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		log.Error("failed decoding initialize response", zap.Error(err))
		return nil, fmt.Errorf("paystack returned malformed data: %w", err)
	}
	if res.AuthorizationURL == "" || res.Reference == "" {
		return nil, fmt.Errorf("paystack returned incomplete initialize data: %s", env.Message)
	}

	log.Info("paystack transaction initialized",
		zap.String("access_code", res.AccessCode),
	)
	return &res, nil
}

func (g *paystackGateway) VerifyTransaction(ctx context.Context, reference string) (*VerifyData, error) {
	log := logger.FromCtx(ctx).With(zap.String("reference", reference))

	url := fmt.Sprintf("%s/transaction/verify/%s", g.baseURL, reference)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		log.Error("failed building verify request", zap.Error(err))
		return nil, err
	}
	g.authorize(req)

	env, err := g.do(req)
	if err != nil {
		log.Error("paystack verify failed", zap.Error(err))
		return nil, err
	}

	var data VerifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		log.Error("failed decoding verify response", zap.Error(err))
		return nil, fmt.Errorf("paystack returned malformed data: %w", err)
	}
	if data.Reference == "" {
		return nil, fmt.Errorf("paystack returned incomplete verify data: %s", env.Message)
	}

	log.Info("paystack transaction verified", zap.String("status", data.Status))
	return &data, nil
}

// do executes the request and decodes the provider envelope, surfacing the
// provider's own message on non-success. The bearer token is attached per
// call and never cached.
func (g *paystackGateway) do(req *http.Request) (*envelope, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read paystack response: %w", err)
	}

	var env envelope
	parseErr := json.Unmarshal(bodyBytes, &env)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if parseErr == nil && env.Message != "" {
			return nil, fmt.Errorf("paystack error: %s", env.Message)
		}
		return nil, fmt.Errorf("paystack error: %s", string(bodyBytes))
	}
	if parseErr != nil {
		return nil, fmt.Errorf("paystack returned malformed body: %w", parseErr)
	}
	if !env.Status || len(env.Data) == 0 {
		return nil, fmt.Errorf("paystack error: %s", env.Message)
	}

	return &env, nil
}

func (g *paystackGateway) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
}

// VerifyWebhookSignature checks the HMAC-SHA512 hex digest of the exact raw
// body against the provider-supplied header value.
func (g *paystackGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(g.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
