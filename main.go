package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"keyword-volume/internal/config"
	"keyword-volume/internal/service"
	"keyword-volume/pkg/estimator"
	"keyword-volume/pkg/logger"
	"keyword-volume/pkg/volume"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("CRITICAL ERROR: application panic recovered: %v\n", r)
			os.Exit(1)
		}
	}()

	var (
		keywords   = flag.String("keywords", getEnvOrDefault("KEYWORDS", ""), "Comma-separated keywords (env: KEYWORDS)")
		country    = flag.String("country", getEnvOrDefault("COUNTRY", "US"), "Country code: US, UK, CA, SA (env: COUNTRY)")
		method     = flag.String("method", getEnvOrDefault("METHOD", "combined"), "Estimation method (env: METHOD)")
		configPath = flag.String("config", getEnvOrDefault("KV_CONFIG", ""), "Optional YAML configuration file (env: KV_CONFIG)")
		clearCache = flag.Bool("clear-cache", false, "Clear the volume cache before estimating")
		debug      = flag.Bool("debug", getEnvBoolOrDefault("DEBUG", false), "Enable debug logging (env: DEBUG)")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	if err := run(*keywords, *country, *method, *configPath, *clearCache, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(keywordList, countryCode, methodName, configPath string, clearCache, debug bool) error {
	cfg, err := config.NewManager().Load(configPath)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(logger.New(cliLoggerConfig(cfg.Logger, debug)))
	log := logger.GetLogger().WithField("component", "main")

	keywords := estimator.CleanKeywords(strings.Split(keywordList, ","))
	if len(keywords) == 0 && !clearCache {
		printUsage()
		return fmt.Errorf("at least one keyword is required")
	}

	country, err := volume.ParseCountry(strings.ToUpper(countryCode))
	if err != nil {
		return err
	}
	method, err := volume.ParseMethod(methodName)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	svc, closeStore, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.WithError(err).Warn("Failed to close cache backend cleanly")
		}
	}()

	if clearCache {
		if err := svc.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Cache cleared.")
	}
	if len(keywords) == 0 {
		return nil
	}

	start := time.Now()
	results := svc.EstimateMany(ctx, keywords, country, method)
	printResults(results, method, time.Since(start))
	return nil
}

// cliLoggerConfig keeps stdout for the results table.
func cliLoggerConfig(config logger.Config, debug bool) logger.Config {
	if debug {
		config.Level = "debug"
	}
	if config.Output == "" || config.Output == "stdout" {
		config.Output = "stderr"
	}
	return config
}

func printResults(results []volume.BatchEntry, method volume.Method, duration time.Duration) {
	width := len("Keyword")
	for _, r := range results {
		width = max(width, len(r.Keyword))
	}

	fmt.Printf("\n=== Keyword Volumes (%s) ===\n", method)
	fmt.Printf("%-*s  %-7s  %10s\n", width, "Keyword", "Country", "Volume")
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			fmt.Printf("%-*s  %-7s  %10s  %s\n", width, r.Keyword, r.Country, "-", r.Error)
			continue
		}
		fmt.Printf("%-*s  %-7s  %10d\n", width, r.Keyword, r.Country, r.Volume)
	}
	fmt.Printf("\nTotal: %d  Failed: %d  Duration: %s\n", len(results), failed, duration.Round(time.Millisecond))
}

func printUsage() {
	fmt.Println("keyword-volume: estimate monthly search volume for keywords")
	fmt.Println("")
	fmt.Println("USAGE:")
	fmt.Println("    ./keyword-volume -keywords \"wireless earbuds,phone case\" [OPTIONS]")
	fmt.Println("")
	fmt.Println("OPTIONS:")
	fmt.Println("    -keywords string   Comma-separated keywords (env: KEYWORDS)")
	fmt.Println("    -country string    US, UK, CA or SA (default: US, env: COUNTRY)")
	fmt.Println("    -method string     combined, trend, autocomplete or fallback (default: combined, env: METHOD)")
	fmt.Println("    -config string     Optional YAML config file (env: KV_CONFIG)")
	fmt.Println("    -clear-cache       Clear the volume cache first")
	fmt.Println("    -debug             Enable debug logging (env: DEBUG)")
	fmt.Println("    -help              Show this help message")
	fmt.Println("")
	fmt.Println("Any config key can be overridden with a KV_ variable, e.g.")
	fmt.Println("    KV_CACHE_BACKEND=postgres KV_CACHE_DATABASE_URL=postgres://... ./keyword-volume -keywords shoes")
}
