package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol string `json:"1. symbol"`
		Name   string `json:"2. name"`
	} `json:"bestMatches"`
}

type alphaVantageError struct {
	Information string `json:"Information"`
}

// AlphaVantageProvider implements MarketDataProvider against the Alpha
// Vantage quote and symbol-search endpoints.
type AlphaVantageProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewAlphaVantageProvider(apiKey string, log zerolog.Logger) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		apiKey:  apiKey,
		baseURL: "https://www.alphavantage.co",
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// FetchPrice returns the latest quote for a ticker code, or nil when the
// provider has no data for it.
func (p *AlphaVantageProvider) FetchPrice(ctx context.Context, code string) (*float64, error) {
	if code == "" {
		return nil, nil
	}

	body, err := p.get(ctx, fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s", p.baseURL, code, p.apiKey))
	if err != nil {
		return nil, err
	}

	var quote globalQuoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %v", err)
	}
	if quote.GlobalQuote.Symbol == "" || quote.GlobalQuote.Price == "" {
		// Unknown code is a skip signal, not an error.
		return nil, nil
	}

	price, err := parsePrice(quote.GlobalQuote.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %v", err)
	}
	return &price, nil
}

// FetchAssetInfo resolves display name and latest price for a code. The name
// falls back to the uppercased code when the search endpoint has no match.
func (p *AlphaVantageProvider) FetchAssetInfo(ctx context.Context, code string) (*AssetInfo, error) {
	price, err := p.FetchPrice(ctx, code)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, nil
	}

	name := strings.ToUpper(code)
	body, err := p.get(ctx, fmt.Sprintf("%s/query?function=SYMBOL_SEARCH&keywords=%s&apikey=%s", p.baseURL, code, p.apiKey))
	if err != nil {
		p.log.Warn().Err(err).Str("code", code).Msg("symbol search failed, using code as name")
	} else {
		var search symbolSearchResponse
		if err := json.Unmarshal(body, &search); err == nil && len(search.BestMatches) > 0 {
			name = search.BestMatches[0].Name
		}
	}

	return &AssetInfo{Name: name, Price: *price}, nil
}

func (p *AlphaVantageProvider) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	// The API reports rate limiting as a 200 with an "Information" payload.
	var apiError alphaVantageError
	if err := json.Unmarshal(body, &apiError); err == nil && apiError.Information != "" {
		if strings.Contains(apiError.Information, "rate limit") {
			return nil, fmt.Errorf("API rate limit exceeded: %s", apiError.Information)
		}
	}
	return body, nil
}

func parsePrice(priceStr string) (float64, error) {
	cleaned := strings.TrimSpace(priceStr)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price string")
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse '%s' as float: %v", cleaned, err)
	}
	return price, nil
}
