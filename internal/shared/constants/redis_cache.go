package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// Centralizes the Redis cache keys and TTL values used by the ledger gateway.
// Pattern: concert:{kind}:{identifier}

// ================== CACHE TTL DURATIONS ==================

// Immutable data (committed transaction records never change)
const (
	TTL_IMMUTABLE = 24 * time.Hour
)

// Account views are invalidated on commit, the TTL only bounds staleness
// when the invalidation hook is not running (e.g. a second gateway instance).
const (
	TTL_ACCOUNT_VIEW = 1 * time.Minute
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "concert"
)

// ================== ACCOUNTS ==================

const (
	CACHE_KEY_ACCOUNT       = CACHE_PREFIX + ":account:"       // + address (raw account)
	CACHE_KEY_VENUE         = CACHE_PREFIX + ":venue:"         // + address
	CACHE_KEY_RECEIPT       = CACHE_PREFIX + ":receipt:"       // + address
	CACHE_KEY_TOKEN_ACCOUNT = CACHE_PREFIX + ":token_account:" // + address
)

// ================== TRANSACTIONS ==================

const (
	CACHE_KEY_TRANSACTION = CACHE_PREFIX + ":tx:" // + signature
)

// ================== CACHE INVALIDATION PATTERNS ==================

// Used with SCAN on startup: an in-memory ledger starts empty, so views
// cached by a previous process are stale.
const (
	PATTERN_INVALIDATE_ALL = CACHE_PREFIX + ":*"
)

// ================== HELPER FUNCTIONS ==================

// AccountViewKeys returns every cache key that may hold a decoded view of the
// account at address. A commit that writes the account deletes all of them.
func AccountViewKeys(address string) []string {
	return []string{
		CACHE_KEY_ACCOUNT + address,
		CACHE_KEY_VENUE + address,
		CACHE_KEY_RECEIPT + address,
		CACHE_KEY_TOKEN_ACCOUNT + address,
	}
}

func BuildVenueKey(address string) string {
	return CACHE_KEY_VENUE + address
}

func BuildReceiptKey(address string) string {
	return CACHE_KEY_RECEIPT + address
}

func BuildTokenAccountKey(address string) string {
	return CACHE_KEY_TOKEN_ACCOUNT + address
}

func BuildAccountKey(address string) string {
	return CACHE_KEY_ACCOUNT + address
}

func BuildTransactionKey(signature string) string {
	return CACHE_KEY_TRANSACTION + signature
}

// BuildRateLimitKey builds the sliding window key for a client and route group.
// Example: BuildRateLimitKey("transactions", "10.0.0.1") -> "concert:ratelimit:transactions:10.0.0.1"
func BuildRateLimitKey(group, client string) string {
	return fmt.Sprintf("%s:ratelimit:%s:%s", CACHE_PREFIX, group, client)
}
