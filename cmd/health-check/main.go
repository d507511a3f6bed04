// Package main provides a standalone health check command for the nutrition API.
// It can be used for Docker health checks, monitoring scripts, and debugging.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/ai"
	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/container"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
	"github.com/alchemorsel/nutrition/pkg/logger"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
	ConfigPath     string
	LocalCheck     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		return exitCodeError
	}

	if opts.LocalCheck {
		return runLocalHealthCheck(opts, out)
	}
	return runRemoteHealthCheck(opts, out)
}

// parseFlags parses command-line flags
func parseFlags(args []string) (Options, error) {
	opts := Options{}
	fs := flag.NewFlagSet("health-check", flag.ContinueOnError)

	fs.StringVar(&opts.URL, "url", "", "Health check endpoint URL (default $HEALTH_CHECK_URL or http://localhost:8080/health)")
	fs.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")
	fs.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, compact")
	fs.StringVar(&opts.ExpectedStatus, "expect", "healthy", "Expected status: healthy, degraded")
	fs.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	fs.DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	fs.StringVar(&opts.ConfigPath, "config", "", "Configuration file path (local mode)")
	fs.BoolVar(&opts.LocalCheck, "local", false, "Check the AI provider directly instead of calling the server")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.URL == "" {
		opts.URL = os.Getenv("HEALTH_CHECK_URL")
	}
	if opts.URL == "" {
		opts.URL = "http://localhost:8080/health"
	}

	return opts, nil
}

// runRemoteHealthCheck performs a remote health check via HTTP
func runRemoteHealthCheck(opts Options, out io.Writer) int {
	client := &http.Client{Timeout: opts.Timeout}

	var lastError error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Fprintf(out, "Retrying in %v... (attempt %d/%d)\n", opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		resp, err := client.Get(opts.URL)
		if err != nil {
			lastError = err
			if opts.Verbose {
				fmt.Fprintf(out, "Request failed: %v\n", err)
			}
			continue
		}

		return handleResponse(resp, opts, out)
	}

	fmt.Fprintf(out, "Health check failed after %d attempts: %v\n", opts.RetryCount+1, lastError)
	return exitCodeError
}

// runLocalHealthCheck builds the configured AI provider and checks it in-process
func runLocalHealthCheck(opts Options, out io.Writer) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(out, "Failed to load configuration: %v\n", err)
		return exitCodeError
	}

	log, err := logger.New(logger.Config{Level: "error", Format: "json"})
	if err != nil {
		fmt.Fprintf(out, "Failed to create logger: %v\n", err)
		return exitCodeError
	}
	defer func() { _ = log.Sync() }()

	provider, err := ai.NewProvider(container.ProviderConfig(cfg), log)
	if err != nil {
		fmt.Fprintf(out, "Failed to create AI provider: %v\n", err)
		return exitCodeError
	}

	hc := healthcheck.New(cfg.App.Version, log)
	hc.Register("ai", ai.NewHealthChecker(provider, opts.Timeout, log))

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	log.Debug("Running local health check", zap.String("provider", provider.Provider()))
	return outputResult(hc.Check(ctx), opts, out)
}

// handleResponse handles the HTTP response
func handleResponse(resp *http.Response, opts Options, out io.Writer) int {
	defer resp.Body.Close()

	var response healthcheck.Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		fmt.Fprintf(out, "Failed to decode response: %v\n", err)
		return exitCodeError
	}
	if response.Status == "" {
		fmt.Fprintf(out, "Response from %s carries no status (HTTP %d)\n", opts.URL, resp.StatusCode)
		return exitCodeError
	}

	return outputResult(response, opts, out)
}

// outputResult prints the result and maps its status to an exit code
func outputResult(result healthcheck.Response, opts Options, out io.Writer) int {
	switch opts.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(data))
	case "compact":
		data, _ := json.Marshal(result)
		fmt.Fprintln(out, string(data))
	default:
		outputText(result, opts.Verbose, out)
	}

	return exitCode(result.Status, healthcheck.Status(opts.ExpectedStatus))
}

func exitCode(status, expected healthcheck.Status) int {
	switch {
	case status == expected:
		return exitCodeSuccess
	case status == healthcheck.StatusHealthy:
		return exitCodeSuccess
	case status == healthcheck.StatusDegraded && expected != healthcheck.StatusHealthy:
		return exitCodeSuccess
	default:
		return exitCodeFailure
	}
}

// outputText outputs the result in text format
func outputText(r healthcheck.Response, verbose bool, out io.Writer) {
	fmt.Fprintf(out, "Status: %s\n", r.Status)
	fmt.Fprintf(out, "Version: %s\n", r.Version)
	fmt.Fprintf(out, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))

	if verbose && len(r.Checks) > 0 {
		fmt.Fprintln(out, "\nChecks:")
		for _, check := range r.Checks {
			fmt.Fprintf(out, "  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Fprintf(out, " (%s)", check.Message)
			}
			fmt.Fprintln(out)
		}
	}
}
