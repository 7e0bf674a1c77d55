package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"checkout-session-engine/internal/core/domain"

	"github.com/rs/zerolog"
)

// HTTPMerchantDataService implements ports.MerchantDataService against
// a remote merchant backend. Selected by merchant.mode=http.
type HTTPMerchantDataService struct {
	baseURL    string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewHTTPMerchantDataService creates the HTTP-backed capability.
func NewHTTPMerchantDataService(baseURL string, httpClient HTTPClient, log zerolog.Logger) *HTTPMerchantDataService {
	return &HTTPMerchantDataService{
		baseURL:    baseURL,
		httpClient: httpClient,
		log:        log,
	}
}

type merchantDataRequest struct {
	Items              []domain.Item              `json:"items"`
	FulfillmentDetails *domain.FulfillmentDetails `json:"fulfillment_details,omitempty"`
}

// GetMerchantData POSTs the item set to the merchant backend and
// decodes the pricing bundle it returns.
func (s *HTTPMerchantDataService) GetMerchantData(ctx context.Context, items []domain.Item, fulfillmentDetails *domain.FulfillmentDetails) (*domain.MerchantData, error) {
	body, err := json.Marshal(merchantDataRequest{
		Items:              items,
		FulfillmentDetails: fulfillmentDetails,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal merchant data request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/merchant_data", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build merchant data request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call merchant backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn().Int("status", resp.StatusCode).Msg("merchant backend returned non-2xx")
		return nil, fmt.Errorf("merchant backend status %d", resp.StatusCode)
	}

	var md domain.MerchantData
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return nil, fmt.Errorf("decode merchant data: %w", err)
	}
	return &md, nil
}
