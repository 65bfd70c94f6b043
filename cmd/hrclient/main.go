// Command hrclient is a smoke and load client for the HR API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/okamoto/oracle-hr-api/internal/api"
	"github.com/okamoto/oracle-hr-api/internal/config"
	"github.com/okamoto/oracle-hr-api/internal/logger"
	"github.com/okamoto/oracle-hr-api/internal/models"
	"github.com/okamoto/oracle-hr-api/internal/worker"
	"go.uber.org/zap"
)

func main() {
	host := flag.String("host", "http://localhost:8080", "HR API base URL")
	user := flag.String("user", "demo", "Username to log in with")
	password := flag.String("password", "demo", "Password to log in with")
	role := flag.String("role", "Manager", "Role used when seeding the user")
	seed := flag.Bool("seed", true, "Seed the user before logging in")
	count := flag.Int("count", 1, "Number of request rounds to send")
	concurrent := flag.Int("concurrent", 1, "Number of concurrent workers")
	caCert := flag.String("ca-cert", "", "Extra PEM CA bundle for HTTPS servers")
	insecure := flag.Bool("insecure", false, "Skip TLS certificate verification")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	zl, err := logger.New(config.LoggingConfig{Level: *logLevel, Format: "console", OutputPath: "stderr"})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	client, err := api.NewClient(api.Config{
		BaseURL:         *host,
		Timeout:         30 * time.Second,
		MaxIdleConns:    *concurrent,
		CACertFile:      *caCert,
		TLSInsecureSkip: *insecure,
	}, zl)
	if err != nil {
		zl.Fatal("failed to create client", zap.Error(err))
	}
	defer client.Close()

	ctx := context.Background()

	if *seed {
		msg, err := client.SeedUser(ctx, models.SeedUserRequest{Username: *user, Password: *password, Role: *role})
		switch {
		case err == nil:
			fmt.Println("seed:", msg)
		case api.IsStatus(err, http.StatusBadRequest):
			fmt.Println("seed: user already present, continuing")
		default:
			zl.Fatal("seed failed", zap.Error(err))
		}
	}

	if _, err := client.Login(ctx, *user, *password); err != nil {
		zl.Fatal("login failed", zap.Error(err))
	}
	fmt.Printf("logged in as %s\n", *user)

	if err := runBatch(ctx, client, zl, *count, *concurrent); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// round is one pass over every endpoint.
func round(ctx context.Context, client *api.Client) error {
	if _, err := client.Now(ctx); err != nil {
		return fmt.Errorf("now: %w", err)
	}
	if _, err := client.Employees(ctx); err != nil {
		return fmt.Errorf("employees: %w", err)
	}
	if _, err := client.EmployeesBySalary(ctx, nil, nil); err != nil && !api.IsStatus(err, http.StatusForbidden) {
		return fmt.Errorf("employees-salary: %w", err)
	}
	if _, err := client.DepartmentCounts(ctx); err != nil {
		return fmt.Errorf("employees-by-departments: %w", err)
	}
	return nil
}

func runBatch(ctx context.Context, client *api.Client, zl *zap.Logger, count, concurrent int) error {
	if concurrent < 1 {
		concurrent = 1
	}
	if count < 1 {
		return nil
	}

	fmt.Printf("Running %d rounds with %d concurrent workers\n", count, concurrent)

	pool := worker.NewPool(concurrent, concurrent, zl)
	pool.Start()

	start := time.Now()
	go func() {
		defer pool.Close()
		for i := 0; i < count; i++ {
			job := worker.Job{ID: i, Run: func(ctx context.Context) error { return round(ctx, client) }}
			if err := pool.Submit(ctx, job); err != nil {
				zl.Error("failed to submit round", zap.Int("round", i), zap.Error(err))
				return
			}
		}
	}()

	perWorker := make(map[int]int)
	failed := 0
	var slowest time.Duration
	for r := range pool.Results() {
		if r.Err != nil {
			log.Printf("round %d on worker %d failed: %v", r.JobID, r.WorkerID, r.Err)
			failed++
			continue
		}
		perWorker[r.WorkerID]++
		if r.Duration > slowest {
			slowest = r.Duration
		}
	}

	duration := time.Since(start)
	for id := 0; id < concurrent; id++ {
		fmt.Printf("Worker %d completed: %d rounds\n", id, perWorker[id])
	}
	fmt.Printf("\nCompleted in %v (slowest round %v)\n", duration, slowest)
	fmt.Printf("Rounds/second: %.2f\n", float64(count)/duration.Seconds())

	if failed > 0 {
		return fmt.Errorf("%d of %d rounds failed", failed, count)
	}
	return nil
}
