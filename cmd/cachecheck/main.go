package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"concertticket/internal/shared/constants"
	"concertticket/internal/venues"
)

// CheckResult is one request against the gateway
type CheckResult struct {
	Endpoint     string        `json:"endpoint"`
	CacheKey     string        `json:"cache_key"`
	CachedBefore bool          `json:"cached_before"`
	CachedAfter  bool          `json:"cached_after"`
	Status       int           `json:"status"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
}

type CheckSuite struct {
	BaseURL string
	Redis   *redis.Client
	HTTP    *http.Client
	Results []CheckResult
}

func main() {
	flagSet := pflag.NewFlagSet("cachecheck", pflag.ContinueOnError)
	baseURL := flagSet.String("base-url", "http://localhost:8080/api/v1", "gateway API base URL")
	redisAddr := flagSet.String("redis", "localhost:6379", "redis address the gateway caches in")
	output := flagSet.String("output", "", "write the JSON report to this file")
	venueIDs := flagSet.StringSlice("venue", []string{"red-rocks", "blue-note"}, "venue ids to read")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}

	suite := &CheckSuite{
		BaseURL: *baseURL,
		Redis:   redis.NewClient(&redis.Options{Addr: *redisAddr}),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
	defer suite.Redis.Close()

	ctx := context.Background()
	if err := suite.Redis.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}

	for _, id := range *venueIDs {
		address, _, err := venues.FindVenueAddress(venues.ProgramID, id)
		if err != nil {
			log.Fatalf("venue %q: %v", id, err)
		}
		key := constants.BuildVenueKey(address.String())
		endpoint := "/venues/" + id

		// The first read fills the cache, the second must be served from it
		for range 2 {
			suite.Results = append(suite.Results, suite.check(ctx, endpoint, key))
		}
	}

	if err := suite.report(*output); err != nil {
		log.Fatal(err)
	}
}

func (s *CheckSuite) check(ctx context.Context, endpoint, key string) CheckResult {
	result := CheckResult{Endpoint: endpoint, CacheKey: key}
	result.CachedBefore = s.cached(ctx, key)

	start := time.Now()
	resp, err := s.HTTP.Get(s.BaseURL + endpoint)
	result.ResponseTime = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	result.Status = resp.StatusCode
	result.CachedAfter = s.cached(ctx, key)
	if resp.StatusCode == http.StatusOK && !result.CachedAfter {
		result.Error = "venue served but not cached"
	}

	fmt.Printf("GET %-24s %d  cached %v -> %v  %v\n", endpoint, result.Status, result.CachedBefore, result.CachedAfter, result.ResponseTime)
	return result
}

func (s *CheckSuite) cached(ctx context.Context, key string) bool {
	n, err := s.Redis.Exists(ctx, key).Result()
	return err == nil && n > 0
}

func (s *CheckSuite) report(path string) error {
	var failed, hits int
	for _, r := range s.Results {
		if r.Error != "" {
			failed++
		}
		if r.CachedBefore {
			hits++
		}
	}
	fmt.Printf("\n%d requests, %d served from cache, %d failed\n", len(s.Results), hits, failed)

	if path != "" {
		data, err := json.MarshalIndent(map[string]any{
			"requests": len(s.Results),
			"hits":     hits,
			"failed":   failed,
			"results":  s.Results,
		}, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}
