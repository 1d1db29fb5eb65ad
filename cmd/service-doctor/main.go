package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	containerTypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/fatih/color"
	"github.com/twmb/franz-go/pkg/kgo"
	"gopkg.in/yaml.v3"

	"pos-payment-system/internal/adapters/analytics/clickhouse"
	"pos-payment-system/internal/adapters/storage/postgres"
	"pos-payment-system/internal/adapters/storage/redis"
	"pos-payment-system/internal/config"
	"pos-payment-system/internal/observability"
)

// Check describes one diagnostic check
type Check struct {
	Name     string
	Func     func(ctx context.Context) error
	Error    error
	Duration time.Duration
}

var errNotConfigured = errors.New("not configured")

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the config file")
	gatewayURL := flag.String("gateway", "http://localhost:8080", "Payment gateway base URL")
	composePath := flag.String("compose", "docker-compose.yml", "Compose file listing the expected containers; empty skips the check")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := observability.SetupLogger(cfg.App.Env)

	checks := []Check{
		{Name: "Payment Gateway", Func: func(ctx context.Context) error {
			return checkHTTPHealth(ctx, *gatewayURL+"/health", logger)
		}},
		{Name: "PostgreSQL", Func: func(ctx context.Context) error {
			return checkPostgres(ctx, cfg.Postgres.DSN)
		}},
		{Name: "Redis", Func: func(ctx context.Context) error {
			return checkRedis(ctx, cfg.Redis.Addr, logger)
		}},
		{Name: "Kafka Cluster", Func: func(ctx context.Context) error {
			return checkKafka(ctx, cfg.Kafka.BootstrapServers)
		}},
		{Name: "ClickHouse", Func: func(ctx context.Context) error {
			return checkClickHouse(ctx, cfg, logger)
		}},
	}
	if cfg.OIDC.URL != "" {
		checks = append(checks, Check{Name: "OIDC Provider", Func: func(ctx context.Context) error {
			return checkHTTPHealth(ctx, strings.TrimSuffix(cfg.OIDC.URL, "/")+"/.well-known/openid-configuration", logger)
		}})
	}
	if *composePath != "" {
		checks = append(checks, Check{Name: "Containers", Func: func(ctx context.Context) error {
			return checkContainers(ctx, *composePath, logger)
		}})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Println("Running system diagnostics...")
	runChecks(ctx, checks)

	if !report(checks) {
		fmt.Println("\nDiagnostics found problems.")
		os.Exit(1)
	}
	fmt.Println("\nAll systems operational.")
}

func runChecks(ctx context.Context, checks []Check) {
	var wg sync.WaitGroup
	for i := range checks {
		wg.Add(1)
		go func(c *Check) {
			defer wg.Done()
			start := time.Now()
			c.Error = c.Func(ctx)
			c.Duration = time.Since(start)
		}(&checks[i])
	}
	wg.Wait()
}

// report prints one line per check and reports whether all of them passed.
// Unconfigured components are shown but do not fail the run.
func report(checks []Check) bool {
	ok := color.New(color.FgGreen).SprintFunc()
	skip := color.New(color.FgYellow).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	fmt.Println("\n--- Diagnostics report ---")
	healthy := true
	for _, c := range checks {
		took := c.Duration.Round(time.Millisecond)
		switch {
		case c.Error == nil:
			fmt.Printf("[%s] %-20s (%v)\n", ok("OK"), c.Name, took)
		case errors.Is(c.Error, errNotConfigured):
			fmt.Printf("[%s] %-20s\n", skip("SKIP"), c.Name)
		default:
			healthy = false
			fmt.Printf("[%s] %-20s (%v) - %v\n", failed("FAILED"), c.Name, took, c.Error)
		}
	}
	return healthy
}

// --- Functions for checks ---

func checkHTTPHealth(ctx context.Context, url string, logger *slog.Logger) error {
	if !strings.HasPrefix(url, "http") {
		url = "http://" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

func checkPostgres(ctx context.Context, dsn string) error {
	if dsn == "" {
		return errNotConfigured
	}
	repo, err := postgres.NewRepository(ctx, dsn)
	if err != nil {
		return err
	}
	defer repo.Close()
	return repo.Ping(ctx)
}

func checkRedis(ctx context.Context, addr string, logger *slog.Logger) error {
	if addr == "" {
		return errNotConfigured
	}
	rdb, err := redis.NewClient(ctx, addr)
	if err != nil {
		return err
	}
	if err := rdb.Close(); err != nil {
		logger.Error("failed to close Redis", "error", err)
	}
	return nil
}

func checkKafka(ctx context.Context, brokers string) error {
	if brokers == "" {
		return errNotConfigured
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.DialTimeout(5*time.Second),
	)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Ping(ctx)
}

func checkClickHouse(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.ClickHouse.Addr == "" {
		return errNotConfigured
	}
	store, err := clickhouse.Open(ctx, clickhouse.Options{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		User:     cfg.ClickHouse.User,
		Password: cfg.ClickHouse.Password,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close ClickHouse", "error", err)
		}
	}()
	return nil
}

// composeFile is the part of docker-compose.yml the doctor reads.
type composeFile struct {
	Services map[string]any `yaml:"services"`
}

func composeServices(raw []byte) ([]string, error) {
	var cf composeFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("parse compose file: %w", err)
	}
	names := make([]string, 0, len(cf.Services))
	for name := range cf.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// missingServices returns the expected services without a running container,
// matched by the compose service label.
func missingServices(expected []string, running []containerTypes.Summary) []string {
	up := make(map[string]bool, len(running))
	for _, c := range running {
		if c.State == "running" {
			up[c.Labels["com.docker.compose.service"]] = true
		}
	}
	var missing []string
	for _, name := range expected {
		if !up[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func checkContainers(ctx context.Context, composePath string, logger *slog.Logger) error {
	raw, err := os.ReadFile(composePath)
	if errors.Is(err, os.ErrNotExist) {
		return errNotConfigured
	}
	if err != nil {
		return err
	}
	expected, err := composeServices(raw)
	if err != nil {
		return err
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("create docker client: %w", err)
	}
	defer func() {
		if err := cli.Close(); err != nil {
			logger.Error("failed to close Docker client", "error", err)
		}
	}()

	running, err := cli.ContainerList(ctx, containerTypes.ListOptions{})
	if err != nil {
		return fmt.Errorf("list containers: %w", err)
	}
	if missing := missingServices(expected, running); len(missing) > 0 {
		return fmt.Errorf("not running: %s", strings.Join(missing, ", "))
	}
	return nil
}
