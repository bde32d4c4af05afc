package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

const (
	idempotencyHeader = "Idempotency-Key"
	defaultPrice      = "120"
	defaultQty        = int32(1)

	statusTransportError = 0
)

type loadMode string

const (
	modePlace       loadMode = "place"
	modePlaceBrowse loadMode = "place-browse"
)

type config struct {
	baseURL     string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	browseRate  int
	category    string
	productName string
	price       decimal.Decimal
	quantity    int32
	keyTag      string
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type methodReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Statuses  map[string]int64 `json:"statuses"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

type report struct {
	StartedAt         time.Time               `json:"started_at"`
	DurationSeconds   float64                 `json:"duration_seconds"`
	TotalScenarios    int64                   `json:"total_scenarios"`
	SuccessScenarios  int64                   `json:"success_scenarios"`
	FailedScenarios   int64                   `json:"failed_scenarios"`
	ErrorRate         float64                 `json:"error_rate"`
	RPS               float64                 `json:"rps"`
	ScenarioLatencyMs latencySummary          `json:"scenario_latency_ms"`
	Methods           map[string]methodReport `json:"methods"`
}

type methodStats struct {
	calls     int64
	success   int64
	failed    int64
	statuses  map[string]int64
	latencies []float64
}

type collector struct {
	mu      sync.Mutex
	methods map[string]*methodStats
}

func newCollector() *collector {
	return &collector{
		methods: make(map[string]*methodStats),
	}
}

func (c *collector) record(method string, latency time.Duration, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.methods[method]
	if !ok {
		stats = &methodStats{
			statuses: make(map[string]int64),
		}
		c.methods[method] = stats
	}

	stats.calls++
	if isSuccessStatus(status) {
		stats.success++
	} else {
		stats.failed++
	}
	stats.statuses[statusLabel(status)]++
	stats.latencies = append(stats.latencies, float64(latency.Microseconds())/1000.0)
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		Methods:         make(map[string]methodReport, len(c.methods)),
	}

	scenarioStats := c.methods["scenario"]
	if scenarioStats != nil {
		result.TotalScenarios = scenarioStats.calls
		result.SuccessScenarios = scenarioStats.success
		result.FailedScenarios = scenarioStats.failed
		result.ErrorRate = ratio(scenarioStats.failed, scenarioStats.calls)
		result.ScenarioLatencyMs = buildLatencySummary(scenarioStats.latencies)
	}
	if duration > 0 {
		result.RPS = float64(result.TotalScenarios) / duration.Seconds()
	}

	for name, stats := range c.methods {
		statusesCopy := make(map[string]int64, len(stats.statuses))
		for status, count := range stats.statuses {
			statusesCopy[status] = count
		}
		result.Methods[name] = methodReport{
			Calls:     stats.calls,
			Success:   stats.success,
			Failed:    stats.failed,
			ErrorRate: ratio(stats.failed, stats.calls),
			Statuses:  statusesCopy,
			LatencyMs: buildLatencySummary(stats.latencies),
		}
	}

	return result
}

func isSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

func statusLabel(status int) string {
	if status == statusTransportError {
		return "transport_error"
	}
	return strconv.Itoa(status)
}

func parseConfig() (config, error) {
	var cfg config
	var modeValue string
	var timeoutValue string
	var durationValue string
	var priceValue string

	flag.StringVar(&cfg.baseURL, "addr", "http://localhost:8080", "POS API base URL")
	flag.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	flag.StringVar(&durationValue, "duration", "0s", "optional time-based run duration (e.g. 10m, 15m)")
	flag.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	flag.StringVar(&timeoutValue, "timeout", "5s", "per-request timeout")
	flag.StringVar(&modeValue, "mode", string(modePlace), "load mode: place | place-browse")
	flag.IntVar(&cfg.browseRate, "browse-rate", 10, "order history read probability in percent for place-browse mode (0..100)")
	flag.StringVar(&cfg.category, "category", "Load", "catalog category used for the load product")
	flag.StringVar(&cfg.productName, "product", "Load Product", "product name used for order items")
	flag.StringVar(&priceValue, "price", defaultPrice, "product unit price")
	flag.StringVar(&cfg.keyTag, "key-tag", "load", "idempotency key prefix")
	flag.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	flag.Parse()

	timeout, err := time.ParseDuration(strings.TrimSpace(timeoutValue))
	if err != nil {
		return cfg, fmt.Errorf("parse timeout: %w", err)
	}
	cfg.timeout = timeout

	duration, err := time.ParseDuration(strings.TrimSpace(durationValue))
	if err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	cfg.duration = duration

	price, err := decimal.NewFromString(strings.TrimSpace(priceValue))
	if err != nil {
		return cfg, fmt.Errorf("parse price: %w", err)
	}
	cfg.price = price
	cfg.quantity = defaultQty

	flag.CommandLine.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return cfg, errors.New("addr is required")
	}
	if cfg.duration < 0 {
		return cfg, errors.New("duration must be >= 0")
	}
	if cfg.duration == 0 && cfg.total <= 0 {
		return cfg, errors.New("total must be > 0 when duration is not set")
	}
	if cfg.duration > 0 && cfg.totalSet && cfg.total <= 0 {
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	}
	if cfg.concurrency <= 0 {
		return cfg, errors.New("concurrency must be > 0")
	}
	if cfg.timeout <= 0 {
		return cfg, errors.New("timeout must be > 0")
	}
	if !cfg.price.IsPositive() {
		return cfg, errors.New("price must be > 0")
	}
	if cfg.browseRate < 0 || cfg.browseRate > 100 {
		return cfg, errors.New("browse-rate must be between 0 and 100")
	}
	if strings.TrimSpace(cfg.category) == "" {
		return cfg, errors.New("category is required")
	}
	if strings.TrimSpace(cfg.productName) == "" {
		return cfg, errors.New("product is required")
	}
	if strings.TrimSpace(cfg.keyTag) == "" {
		return cfg, errors.New("key-tag is required")
	}

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch loadMode(strings.TrimSpace(value)) {
	case modePlace:
		return modePlace, nil
	case modePlaceBrowse:
		return modePlaceBrowse, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: cfg.timeout}

	productID, err := ensureLoadProduct(client, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to prepare load product: %v\n", err)
		os.Exit(1)
	}

	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())
	col := newCollector()

	jobs := make(chan int, cfg.concurrency*2)
	var failures int64
	var wg sync.WaitGroup

	for workerID := 0; workerID < cfg.concurrency; workerID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if runErr := runScenario(client, cfg, productID, id, runID, col); runErr != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}()
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	duration := time.Since(startedAt)
	result := col.buildReport(startedAt, duration)
	if result.FailedScenarios == 0 && failures > 0 {
		result.FailedScenarios = failures
		result.ErrorRate = ratio(result.FailedScenarios, result.TotalScenarios)
	}

	printReport(result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}

		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}

// ensureLoadProduct создаёт категорию и товар для нагрузочного сценария.
// Повторный запуск переиспользует уже существующую категорию.
func ensureLoadProduct(client *http.Client, cfg config) (int64, error) {
	categoryBody, err := json.Marshal(map[string]string{"name": cfg.category})
	if err != nil {
		return 0, err
	}

	status, _, err := doPost(client, cfg.baseURL+"/api/categories", categoryBody, "")
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	if status != http.StatusCreated && status != http.StatusConflict {
		return 0, fmt.Errorf("create category returned status %d", status)
	}

	productBody, err := json.Marshal(map[string]any{
		"name":     fmt.Sprintf("%s %d", cfg.productName, time.Now().UnixNano()),
		"price":    cfg.price,
		"category": cfg.category,
	})
	if err != nil {
		return 0, err
	}

	status, respBody, err := doPost(client, cfg.baseURL+"/api/products", productBody, "")
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	if status != http.StatusCreated {
		return 0, fmt.Errorf("create product returned status %d: %s", status, string(respBody))
	}

	var product struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(respBody, &product); err != nil {
		return 0, fmt.Errorf("decode product response: %w", err)
	}
	if product.ID == 0 {
		return 0, errors.New("create product returned empty id")
	}

	return product.ID, nil
}

func runScenario(
	client *http.Client,
	cfg config,
	productID int64,
	index int,
	runID string,
	col *collector,
) error {
	scenarioStart := time.Now()
	scenarioStatus := http.StatusOK
	defer func() {
		col.record("scenario", time.Since(scenarioStart), scenarioStatus)
	}()

	qty := decimal.NewFromInt32(cfg.quantity)
	orderBody, err := json.Marshal(map[string]any{
		"items": []map[string]any{
			{
				"id":       productID,
				"quantity": cfg.quantity,
				"price":    cfg.price,
			},
		},
		"total": cfg.price.Mul(qty),
	})
	if err != nil {
		scenarioStatus = statusTransportError
		return err
	}

	placeKey := fmt.Sprintf("lt-%s-%s-%d", cfg.keyTag, runID, index)
	status, respBody, err := callPlaceOrder(client, cfg, orderBody, placeKey, col)
	if err != nil {
		scenarioStatus = statusTransportError
		return err
	}
	if status != http.StatusCreated {
		scenarioStatus = status
		return fmt.Errorf("place order returned status %d", status)
	}

	var placed struct {
		OrderID int64 `json:"orderId"`
	}
	if err := json.Unmarshal(respBody, &placed); err != nil || placed.OrderID == 0 {
		scenarioStatus = http.StatusInternalServerError
		return errors.New("place order response returned empty order id")
	}

	if cfg.mode == modePlaceBrowse && shouldBrowse(index, cfg.browseRate) {
		status, err := callListOrders(client, cfg, col)
		if err != nil {
			scenarioStatus = statusTransportError
			return err
		}
		if status != http.StatusOK {
			scenarioStatus = status
			return fmt.Errorf("list orders returned status %d", status)
		}
	}

	return nil
}

func callPlaceOrder(client *http.Client, cfg config, body []byte, key string, col *collector) (int, []byte, error) {
	start := time.Now()
	status, respBody, err := doPost(client, cfg.baseURL+"/api/orders", body, key)
	col.record("PlaceOrder", time.Since(start), status)
	return status, respBody, err
}

func callListOrders(client *http.Client, cfg config, col *collector) (int, error) {
	start := time.Now()

	resp, err := client.Get(cfg.baseURL + "/api/orders")
	if err != nil {
		col.record("ListOrders", time.Since(start), statusTransportError)
		return statusTransportError, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	col.record("ListOrders", time.Since(start), resp.StatusCode)
	return resp.StatusCode, nil
}

func doPost(client *http.Client, url string, body []byte, idempotencyKey string) (int, []byte, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return statusTransportError, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return statusTransportError, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	return resp.StatusCode, respBody, nil
}

func shouldBrowse(index, browseRate int) bool {
	if browseRate <= 0 {
		return false
	}
	if browseRate >= 100 {
		return true
	}
	return index%100 < browseRate
}

func writeJSONReport(path string, result report) error {
	cleanPath := filepath.Clean(path)
	if cleanPath == "." || cleanPath == string(filepath.Separator) {
		return errors.New("output path must point to a file")
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output path must be inside current directory: %s", path)
	}

	// #nosec G304 -- path is an explicit CLI output parameter for local load-test reports.
	file, err := os.Create(cleanPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printReport(result report, cfg config) {
	fmt.Println("Load test summary")
	fmt.Printf("mode=%s run=%s total=%d success=%d failed=%d error_rate=%.4f\n",
		cfg.mode,
		runTarget(cfg),
		result.TotalScenarios,
		result.SuccessScenarios,
		result.FailedScenarios,
		result.ErrorRate,
	)
	fmt.Printf("duration=%.2fs rps=%.2f\n", result.DurationSeconds, result.RPS)
	fmt.Printf("scenario latency ms: min=%.2f avg=%.2f p50=%.2f p95=%.2f p99=%.2f max=%.2f\n",
		result.ScenarioLatencyMs.Min,
		result.ScenarioLatencyMs.Avg,
		result.ScenarioLatencyMs.P50,
		result.ScenarioLatencyMs.P95,
		result.ScenarioLatencyMs.P99,
		result.ScenarioLatencyMs.Max,
	)

	methodNames := make([]string, 0, len(result.Methods))
	for name := range result.Methods {
		if name == "scenario" {
			continue
		}
		methodNames = append(methodNames, name)
	}
	sort.Strings(methodNames)
	for _, name := range methodNames {
		stats := result.Methods[name]
		fmt.Printf(
			"%s: calls=%d success=%d failed=%d error_rate=%.4f p95=%.2fms\n",
			name,
			stats.Calls,
			stats.Success,
			stats.Failed,
			stats.ErrorRate,
			stats.LatencyMs.P95,
		)
	}
}

func runTarget(cfg config) string {
	if cfg.duration <= 0 {
		return fmt.Sprintf("count:%d", cfg.total)
	}
	if cfg.totalSet {
		return fmt.Sprintf("duration:%s,max-total:%d", cfg.duration, cfg.total)
	}
	return fmt.Sprintf("duration:%s", cfg.duration)
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, value := range sorted {
		sum += value
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

func ratio(failed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
