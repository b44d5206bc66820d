package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// searchRequest mirrors the Shopscout API search request model.
type searchRequest struct {
	Marketplace string `json:"marketplace"`
	Query       string `json:"query"`
	FetchMode   string `json:"fetch_mode,omitempty"`
	Stealth     bool   `json:"stealth,omitempty"`
	MaxAge      int    `json:"max_age,omitempty"`
}

// product mirrors one extracted listing in the API response.
type product struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	URL         string   `json:"url"`
	ItemID      string   `json:"item_id,omitempty"`
	Marketplace string   `json:"marketplace"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
}

// searchResponse mirrors the Shopscout API search response model.
type searchResponse struct {
	Success           bool      `json:"success"`
	Marketplace       string    `json:"marketplace"`
	Query             string    `json:"query"`
	Products          []product `json:"products"`
	CandidatesFound   int       `json:"candidates_found"`
	CandidatesSkipped int       `json:"candidates_skipped"`
	EngineUsed        string    `json:"engine_used,omitempty"`
	CacheStatus       string    `json:"cache_status,omitempty"`
	Error             *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// offer is a product scored against the reference title.
type offer struct {
	product
	Similarity float64 `json:"similarity"`
}

// compareResponse mirrors the Shopscout API compare response model.
type compareResponse struct {
	Success        bool              `json:"success"`
	Query          string            `json:"query"`
	ReferenceTitle string            `json:"reference_title"`
	Offers         []offer           `json:"offers"`
	BestOffer      *offer            `json:"best_offer"`
	Errors         map[string]string `json:"errors"`
	Error          *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// snapshot mirrors one stored price observation.
type snapshot struct {
	Marketplace string    `json:"marketplace"`
	Query       string    `json:"query"`
	ItemID      string    `json:"item_id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// historyResponse mirrors the Shopscout API history response.
type historyResponse struct {
	Snapshots []snapshot `json:"snapshots"`
	Total     int        `json:"total"`
}

// watchResponse mirrors a saved watch.
type watchResponse struct {
	ID             string   `json:"id"`
	Query          string   `json:"query"`
	ReferenceTitle string   `json:"reference_title"`
	Marketplaces   []string `json:"marketplaces"`
}

func main() {
	apiURL := os.Getenv("SHOPSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SHOPSCOUT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SHOPSCOUT_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"shopscout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search one marketplace for products and return extracted listings (title, price, URL, rating). Renders JavaScript-heavy result pages with a headless browser when needed."),
		mcp.WithString("marketplace",
			mcp.Required(),
			mcp.Description("Marketplace to search"),
			mcp.Enum("amazon", "walmart", "target", "homedepot"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search phrase, e.g. 'wireless earbuds'"),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("Fetching strategy: 'auto' (default, HTTP-first with browser escalation), 'http' (fastest, no JS), or 'browser' (headless Chrome)"),
			mcp.Enum("auto", "http", "browser"),
		),
		mcp.WithBoolean("stealth",
			mcp.Description("Enable anti-bot-detection evasions (default: false)"),
		),
	)
	s.AddTool(searchTool, handleSearchProducts(apiURL, apiKey))

	compareTool := mcp.NewTool("compare_prices",
		mcp.WithDescription("Search every marketplace for the same product and return offers ranked by title similarity, then ascending price. Use to find the cheapest listing of a specific item."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search phrase sent to every marketplace"),
		),
		mcp.WithString("reference_title",
			mcp.Description("Product title offers are scored against (default: the query)"),
		),
		mcp.WithArray("marketplaces",
			mcp.Description("Subset of marketplaces to compare (default: all of amazon, walmart, target, homedepot)"),
		),
		mcp.WithNumber("min_similarity",
			mcp.Description("Drop offers whose title similarity is below this threshold, 0..1 (default: 0.3)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of ranked offers to return (default: 20, max: 100)"),
		),
	)
	s.AddTool(compareTool, handleComparePrices(apiURL, apiKey))

	historyTool := mcp.NewTool("price_history",
		mcp.WithDescription("List stored price snapshots, newest first. Snapshots are recorded by compare_prices runs and scheduled watches."),
		mcp.WithString("marketplace",
			mcp.Description("Filter by marketplace"),
			mcp.Enum("amazon", "walmart", "target", "homedepot"),
		),
		mcp.WithString("item_id",
			mcp.Description("Filter by marketplace item identifier (e.g. an ASIN)"),
		),
		mcp.WithString("query",
			mcp.Description("Filter by the search phrase that produced the snapshot"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum snapshots to return (default: 50, max: 500)"),
		),
	)
	s.AddTool(historyTool, handlePriceHistory(apiURL, apiKey))

	watchTool := mcp.NewTool("create_watch",
		mcp.WithDescription("Create a scheduled price watch: the comparison re-runs periodically and a webhook fires when the best price drops."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search phrase to watch"),
		),
		mcp.WithString("reference_title",
			mcp.Description("Product title offers are scored against (default: the query)"),
		),
		mcp.WithString("webhook_url",
			mcp.Description("URL that receives price-drop events"),
		),
	)
	s.AddTool(watchTool, handleCreateWatch(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Shopscout API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// apiGet sends a GET request to the Shopscout API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func formatProduct(p product) string {
	line := fmt.Sprintf("$%.2f  %s", p.Price, p.Title)
	if p.Rating != nil {
		line += fmt.Sprintf("  (%.1f★", *p.Rating)
		if p.ReviewCount != nil {
			line += fmt.Sprintf(", %d reviews", *p.ReviewCount)
		}
		line += ")"
	}
	line += "\n  " + p.URL
	return line
}

func handleSearchProducts(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		marketplace, err := request.RequireString("marketplace")
		if err != nil {
			return mcp.NewToolResultError("marketplace is required"), nil
		}
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		reqBody := searchRequest{
			Marketplace: marketplace,
			Query:       query,
			FetchMode:   request.GetString("fetch_mode", ""),
		}
		if stealth, ok := request.GetArguments()["stealth"].(bool); ok {
			reqBody.Stealth = stealth
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search", reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search request failed: %v", err)), nil
		}

		var searchResp searchResponse
		if err := json.Unmarshal(respBody, &searchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !searchResp.Success {
			errMsg := "search failed"
			if searchResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", searchResp.Error.Code, searchResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%s search for %q: %d products (%d candidates, %d skipped)",
			searchResp.Marketplace, searchResp.Query,
			len(searchResp.Products), searchResp.CandidatesFound, searchResp.CandidatesSkipped))
		if searchResp.EngineUsed != "" {
			sb.WriteString(" via " + searchResp.EngineUsed)
		}
		sb.WriteString("\n\n")

		for i, p := range searchResp.Products {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, formatProduct(p)))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleComparePrices(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		payload := map[string]interface{}{
			"query": query,
		}
		if ref := request.GetString("reference_title", ""); ref != "" {
			payload["reference_title"] = ref
		}
		args := request.GetArguments()
		if marketplaces, ok := args["marketplaces"]; ok {
			payload["marketplaces"] = marketplaces
		}
		if minSim, ok := args["min_similarity"]; ok {
			payload["min_similarity"] = minSim
		}
		if maxResults, ok := args["max_results"]; ok {
			payload["max_results"] = maxResults
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/compare", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("compare request failed: %v", err)), nil
		}

		var compareResp compareResponse
		if err := json.Unmarshal(respBody, &compareResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !compareResp.Success {
			errMsg := "comparison failed"
			if compareResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", compareResp.Error.Code, compareResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Compared %q across marketplaces: %d offers\n", compareResp.Query, len(compareResp.Offers)))
		if best := compareResp.BestOffer; best != nil {
			sb.WriteString(fmt.Sprintf("\nBest offer: [%s] %s\n\n", best.Marketplace, formatProduct(best.product)))
		}

		for i, o := range compareResp.Offers {
			sb.WriteString(fmt.Sprintf("%d. [%s, %.0f%% match] %s\n", i+1, o.Marketplace, o.Similarity*100, formatProduct(o.product)))
		}

		for m, msg := range compareResp.Errors {
			sb.WriteString(fmt.Sprintf("\n%s failed: %s", m, msg))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handlePriceHistory(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := url.Values{}
		if m := request.GetString("marketplace", ""); m != "" {
			q.Set("marketplace", m)
		}
		if id := request.GetString("item_id", ""); id != "" {
			q.Set("item_id", id)
		}
		if query := request.GetString("query", ""); query != "" {
			q.Set("query", query)
		}
		if limit, ok := request.GetArguments()["limit"].(float64); ok && limit > 0 {
			q.Set("limit", fmt.Sprintf("%d", int(limit)))
		}

		endpoint := "/api/v1/history"
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}

		respBody, err := apiGet(ctx, client, apiURL, apiKey, endpoint)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history request failed: %v", err)), nil
		}

		var histResp historyResponse
		if err := json.Unmarshal(respBody, &histResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d snapshots:\n\n", histResp.Total))
		for _, sn := range histResp.Snapshots {
			sb.WriteString(fmt.Sprintf("%s  [%s] $%.2f  %s\n",
				sn.CreatedAt.Format(time.RFC3339), sn.Marketplace, sn.Price, sn.Title))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleCreateWatch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		payload := map[string]interface{}{
			"query": query,
		}
		if ref := request.GetString("reference_title", ""); ref != "" {
			payload["reference_title"] = ref
		}
		if hook := request.GetString("webhook_url", ""); hook != "" {
			payload["webhook_url"] = hook
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/watches", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("watch request failed: %v", err)), nil
		}

		var w watchResponse
		if err := json.Unmarshal(respBody, &w); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if w.ID == "" {
			return mcp.NewToolResultError("watch creation failed"), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Watch %s created for %q across %s", w.ID, w.Query, strings.Join(w.Marketplaces, ", "))), nil
	}
}
