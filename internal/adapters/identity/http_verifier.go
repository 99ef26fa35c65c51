package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// cacheTTL bounds how stale a cached verification flag can get. Verification
// is effectively monotonic (users get verified, rarely un-verified), so a
// short TTL is enough.
const cacheTTL = 5 * time.Minute

// HTTPVerifier consumes the external identity service's verification flag,
// with a Redis cache in front so bid placement does not hit the identity
// service on every call.
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
	rdb     *redis.Client
}

// NewHTTPVerifier creates a new verifier. rdb may be nil to disable caching.
func NewHTTPVerifier(baseURL string, rdb *redis.Client) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		rdb:     rdb,
	}
}

type verificationResponse struct {
	Verified bool `json:"verified"`
}

// IsVerified reports whether the user passed identity verification
func (v *HTTPVerifier) IsVerified(ctx context.Context, userID uuid.UUID) (bool, error) {
	cacheKey := "identity:verified:" + userID.String()

	if v.rdb != nil {
		cached, err := v.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			return cached == "1", nil
		}
		// Cache miss or Redis down: fall through to the identity service.
	}

	url := fmt.Sprintf("%s/users/%s/verification", v.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("identity service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var body verificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode verification response: %w", err)
	}

	if v.rdb != nil {
		value := "0"
		if body.Verified {
			value = "1"
		}
		// Cache write failures are not fatal; the flag was fetched.
		_ = v.rdb.Set(ctx, cacheKey, value, cacheTTL).Err()
	}

	return body.Verified, nil
}
