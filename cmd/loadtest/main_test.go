package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func withCLIArgs(t *testing.T, args []string, fn func()) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine

	os.Args = append([]string{"loadtest"}, args...)
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	defer func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	}()

	fn()
}

func TestParseMode(t *testing.T) {
	mode, err := parseMode(" place ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != modePlace {
		t.Fatalf("unexpected mode: %s", mode)
	}

	mode, err = parseMode("place-browse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != modePlaceBrowse {
		t.Fatalf("unexpected mode: %s", mode)
	}

	if _, err := parseMode("unknown"); err == nil {
		t.Fatal("expected error for unsupported mode")
	}
}

func TestParseConfig(t *testing.T) {
	withCLIArgs(t, []string{
		"-addr=http://localhost:8080/",
		"-total=10",
		"-concurrency=2",
		"-timeout=2s",
		"-mode=place-browse",
		"-browse-rate=25",
		"-price=99.90",
	}, func() {
		cfg, err := parseConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.baseURL != "http://localhost:8080" {
			t.Fatalf("expected trailing slash to be trimmed, got %s", cfg.baseURL)
		}
		if cfg.total != 10 || !cfg.totalSet {
			t.Fatalf("unexpected total: %d set=%v", cfg.total, cfg.totalSet)
		}
		if cfg.mode != modePlaceBrowse {
			t.Fatalf("unexpected mode: %s", cfg.mode)
		}
		if cfg.browseRate != 25 {
			t.Fatalf("unexpected browse rate: %d", cfg.browseRate)
		}
		if !cfg.price.Equal(decimal.RequireFromString("99.90")) {
			t.Fatalf("unexpected price: %s", cfg.price)
		}
	})

	invalidCases := [][]string{
		{"-total=0"},
		{"-concurrency=0"},
		{"-timeout=0s"},
		{"-price=-1"},
		{"-price=abc"},
		{"-browse-rate=150"},
		{"-mode=bad"},
		{"-addr="},
		{"-category= "},
		{"-product= "},
		{"-key-tag= "},
	}
	for _, args := range invalidCases {
		withCLIArgs(t, args, func() {
			if _, err := parseConfig(); err == nil {
				t.Fatalf("expected error for args %v", args)
			}
		})
	}
}

func TestDispatchJobs(t *testing.T) {
	jobs := make(chan int, 16)
	dispatchJobs(jobs, config{total: 5})

	var got []int
	for id := range jobs {
		got = append(got, id)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 jobs, got %d", len(got))
	}

	// duration mode with explicit total cap
	jobs = make(chan int, 16)
	dispatchJobs(jobs, config{duration: time.Second, total: 3, totalSet: true})

	got = got[:0]
	for id := range jobs {
		got = append(got, id)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 jobs in capped duration mode, got %d", len(got))
	}
}

func TestCollectorAndReport(t *testing.T) {
	col := newCollector()
	col.record("scenario", 10*time.Millisecond, http.StatusOK)
	col.record("scenario", 20*time.Millisecond, http.StatusBadRequest)
	col.record("PlaceOrder", 5*time.Millisecond, http.StatusCreated)
	col.record("PlaceOrder", 7*time.Millisecond, statusTransportError)

	result := col.buildReport(time.Now(), time.Second)

	if result.TotalScenarios != 2 || result.SuccessScenarios != 1 || result.FailedScenarios != 1 {
		t.Fatalf("unexpected scenario counts: %+v", result)
	}
	if result.ErrorRate != 0.5 {
		t.Fatalf("unexpected error rate: %f", result.ErrorRate)
	}
	if result.RPS != 2 {
		t.Fatalf("unexpected rps: %f", result.RPS)
	}

	place, ok := result.Methods["PlaceOrder"]
	if !ok {
		t.Fatal("expected PlaceOrder method report")
	}
	if place.Statuses["201"] != 1 || place.Statuses["transport_error"] != 1 {
		t.Fatalf("unexpected status counts: %+v", place.Statuses)
	}
}

func TestUtilityFunctions(t *testing.T) {
	if !isSuccessStatus(http.StatusCreated) || isSuccessStatus(http.StatusConflict) || isSuccessStatus(statusTransportError) {
		t.Fatal("unexpected isSuccessStatus behavior")
	}

	if statusLabel(statusTransportError) != "transport_error" {
		t.Fatalf("unexpected transport label: %s", statusLabel(statusTransportError))
	}
	if statusLabel(http.StatusOK) != "200" {
		t.Fatalf("unexpected status label: %s", statusLabel(http.StatusOK))
	}

	if shouldBrowse(1, 0) {
		t.Fatal("browse-rate 0 must never browse")
	}
	if !shouldBrowse(1, 100) {
		t.Fatal("browse-rate 100 must always browse")
	}
	if !shouldBrowse(5, 10) || shouldBrowse(50, 10) {
		t.Fatal("unexpected browse sampling")
	}

	if ratio(1, 0) != 0 {
		t.Fatal("ratio with zero total must be 0")
	}
	if ratio(1, 4) != 0.25 {
		t.Fatal("unexpected ratio value")
	}

	summary := buildLatencySummary([]float64{1, 2, 3, 4})
	if summary.Min != 1 || summary.Max != 4 || summary.Avg != 2.5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if percentile([]float64{5}, 95) != 5 {
		t.Fatal("single value percentile must return the value")
	}
	if percentile(nil, 95) != 0 {
		t.Fatal("empty percentile must return 0")
	}
}

func TestWriteJSONReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	result := report{TotalScenarios: 3}
	if err := writeJSONReport(path, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var decoded report
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.TotalScenarios != 3 {
		t.Fatalf("unexpected decoded report: %+v", decoded)
	}

	if err := writeJSONReport(".", result); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func newFakePOSServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"name":"Load"}`))
	})
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"name":"Load Product","price":"120","category":"Load"}`))
	})
	mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			if r.Header.Get(idempotencyHeader) == "" {
				t.Error("expected idempotency key header on order placement")
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"message":"order created","orderId":42}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	return httptest.NewServer(mux)
}

func TestEnsureLoadProductAndRunScenario(t *testing.T) {
	server := newFakePOSServer(t)
	defer server.Close()

	cfg := config{
		baseURL:     server.URL,
		mode:        modePlaceBrowse,
		browseRate:  100,
		category:    "Load",
		productName: "Load Product",
		price:       decimal.RequireFromString("120"),
		quantity:    1,
		keyTag:      "load",
		timeout:     2 * time.Second,
	}

	client := &http.Client{Timeout: cfg.timeout}

	productID, err := ensureLoadProduct(client, cfg)
	if err != nil {
		t.Fatalf("ensureLoadProduct failed: %v", err)
	}
	if productID != 7 {
		t.Fatalf("unexpected product id: %d", productID)
	}

	col := newCollector()
	if err := runScenario(client, cfg, productID, 0, "run-1", col); err != nil {
		t.Fatalf("runScenario failed: %v", err)
	}

	result := col.buildReport(time.Now(), time.Second)
	if result.Methods["PlaceOrder"].Calls != 1 {
		t.Fatalf("expected one PlaceOrder call, got %+v", result.Methods)
	}
	if result.Methods["ListOrders"].Calls != 1 {
		t.Fatalf("expected one ListOrders call, got %+v", result.Methods)
	}
	if result.FailedScenarios != 0 {
		t.Fatalf("expected no failed scenarios, got %+v", result)
	}
}

func TestRunScenario_PlaceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid request body"}`))
	}))
	defer server.Close()

	cfg := config{
		baseURL:  server.URL,
		mode:     modePlace,
		price:    decimal.RequireFromString("120"),
		quantity: 1,
		keyTag:   "load",
		timeout:  time.Second,
	}

	client := &http.Client{Timeout: cfg.timeout}
	col := newCollector()

	if err := runScenario(client, cfg, 7, 0, "run-1", col); err == nil {
		t.Fatal("expected error for failed order placement")
	}

	result := col.buildReport(time.Now(), time.Second)
	if result.FailedScenarios != 1 {
		t.Fatalf("expected one failed scenario, got %+v", result)
	}
	if result.Methods["PlaceOrder"].Statuses["400"] != 1 {
		t.Fatalf("expected 400 status recorded, got %+v", result.Methods["PlaceOrder"].Statuses)
	}
}

func TestPrintReport(t *testing.T) {
	result := report{
		TotalScenarios:   2,
		SuccessScenarios: 2,
		DurationSeconds:  1,
		RPS:              2,
		Methods: map[string]methodReport{
			"scenario":   {Calls: 2},
			"PlaceOrder": {Calls: 2, Success: 2},
		},
	}

	// Не должно паниковать на любом наборе методов
	printReport(result, config{mode: modePlace, total: 2})
	printReport(report{}, config{mode: modePlaceBrowse, duration: time.Minute})
	printReport(report{}, config{mode: modePlaceBrowse, duration: time.Minute, totalSet: true, total: 10})
}
