package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL    = flag.String("api-url", "http://localhost:8080", "Shopscout API base URL")
	apiKey    = flag.String("api-key", "", "API key for authenticated requests")
	runs      = flag.Int("runs", 3, "Number of runs per search for averaging")
	fetchMode = flag.String("fetch-mode", "auto", "Fetch mode to benchmark (auto, http, browser)")
	output    = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test searches covering every marketplace.
var testSearches = []struct {
	Marketplace string
	Query       string
}{
	{"amazon", "wireless earbuds"},
	{"walmart", "wireless earbuds"},
	{"target", "wireless earbuds"},
	{"homedepot", "cordless drill"},
	{"amazon", "usb c cable 6ft"},
}

// --- Request / Response types (mirrors models package) ---

type searchRequest struct {
	Marketplace string `json:"marketplace"`
	Query       string `json:"query"`
	FetchMode   string `json:"fetch_mode,omitempty"`
	Timeout     int    `json:"timeout"`
}

type searchResponse struct {
	Success           bool         `json:"success"`
	StatusCode        int          `json:"status_code"`
	Products          []product    `json:"products"`
	CandidatesFound   int          `json:"candidates_found"`
	CandidatesSkipped int          `json:"candidates_skipped"`
	EngineUsed        string       `json:"engine_used"`
	Timing            timingInfo   `json:"timing"`
	Error             *errorDetail `json:"error,omitempty"`
}

type product struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

type timingInfo struct {
	TotalMs   int64 `json:"total_ms"`
	FetchMs   int64 `json:"fetch_ms"`
	ExtractMs int64 `json:"extract_ms"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run               int    `json:"run"`
	TotalMs           int64  `json:"total_ms"`
	FetchMs           int64  `json:"fetch_ms"`
	ExtractMs         int64  `json:"extract_ms"`
	Products          int    `json:"products"`
	CandidatesFound   int    `json:"candidates_found"`
	CandidatesSkipped int    `json:"candidates_skipped"`
	EngineUsed        string `json:"engine_used"`
	StatusCode        int    `json:"status_code"`
	Success           bool   `json:"success"`
	Error             string `json:"error,omitempty"`
}

type searchAverages struct {
	TotalMs   float64 `json:"total_ms"`
	FetchMs   float64 `json:"fetch_ms"`
	ExtractMs float64 `json:"extract_ms"`
	Products  float64 `json:"products"`
}

type searchResult struct {
	Marketplace string          `json:"marketplace"`
	Query       string          `json:"query"`
	Runs        []runResult     `json:"runs"`
	Averages    *searchAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp     string         `json:"timestamp"`
	APIURL        string         `json:"api_url"`
	FetchMode     string         `json:"fetch_mode"`
	RunsPerSearch int            `json:"runs_per_search"`
	Results       []searchResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Shopscout Benchmark Suite ===")
	fmt.Printf("API URL:    %s\n", *apiURL)
	fmt.Printf("Fetch mode: %s\n", *fetchMode)
	fmt.Printf("Runs:       %d\n", *runs)
	fmt.Printf("Output:     %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure Shopscout is running\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		APIURL:        *apiURL,
		FetchMode:     *fetchMode,
		RunsPerSearch: *runs,
	}

	for _, t := range testSearches {
		fmt.Printf("Benchmarking [%s] %q ...\n", t.Marketplace, t.Query)
		sr := searchResult{Marketplace: t.Marketplace, Query: t.Query}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkSearch(t.Marketplace, t.Query, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d products via %s\n", rr.TotalMs, rr.Products, rr.EngineUsed)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			sr.Runs = append(sr.Runs, rr)
		}

		sr.Averages = computeAverages(sr.Runs)
		report.Results = append(report.Results, sr)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkSearch(marketplace, query string, run int) runResult {
	rr := runResult{Run: run}

	reqBody := searchRequest{
		Marketplace: marketplace,
		Query:       query,
		FetchMode:   *fetchMode,
		Timeout:     60,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/search", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Success
	rr.StatusCode = sr.StatusCode
	rr.TotalMs = sr.Timing.TotalMs
	rr.FetchMs = sr.Timing.FetchMs
	rr.ExtractMs = sr.Timing.ExtractMs
	rr.Products = len(sr.Products)
	rr.CandidatesFound = sr.CandidatesFound
	rr.CandidatesSkipped = sr.CandidatesSkipped
	rr.EngineUsed = sr.EngineUsed

	if sr.Error != nil {
		rr.Error = sr.Error.Message
	}

	return rr
}

func computeAverages(runs []runResult) *searchAverages {
	var successCount int
	var avg searchAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.FetchMs += float64(r.FetchMs)
		avg.ExtractMs += float64(r.ExtractMs)
		avg.Products += float64(r.Products)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.FetchMs /= n
	avg.ExtractMs /= n
	avg.Products /= n
	return &avg
}

func printTable(results []searchResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Search\tAvg Latency\tAvg Fetch\tProducts\tEngine\tStatus\n")
	fmt.Fprintf(w, "──────\t───────────\t─────────\t────────\t──────\t──────\n")

	for _, r := range results {
		label := fmt.Sprintf("%s: %s", r.Marketplace, truncate(r.Query, 25))
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\t-\n", label)
			continue
		}

		fmt.Fprintf(w, "%s\t%dms\t%dms\t%.1f\t%s\t%d\n",
			label,
			int64(r.Averages.TotalMs),
			int64(r.Averages.FetchMs),
			r.Averages.Products,
			dominantEngine(r.Runs),
			dominantStatus(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func dominantStatus(runs []runResult) int {
	counts := map[int]int{}
	for _, r := range runs {
		if r.Success {
			counts[r.StatusCode]++
		}
	}
	best, bestCount := 0, 0
	for code, count := range counts {
		if count > bestCount {
			best = code
			bestCount = count
		}
	}
	return best
}

func dominantEngine(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		if r.Success && r.EngineUsed != "" {
			counts[r.EngineUsed]++
		}
	}
	best, bestCount := "-", 0
	for engine, count := range counts {
		if count > bestCount {
			best = engine
			bestCount = count
		}
	}
	return best
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
