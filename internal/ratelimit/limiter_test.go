package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func userIDGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-z0-9]{8,32}`)
}

// Property: requests within the burst allowance always succeed.
func testLimiterWithinBurst(t *rapid.T) {
	config := Config{
		UserRPS:         100.0,
		UserBurst:       200,
		AdminRPS:        1000.0,
		AdminBurst:      2000,
		CleanupInterval: time.Hour,
	}

	rl := NewRateLimiter(config)
	defer rl.Stop()

	userID := userIDGenerator().Draw(t, "userID")
	isAdmin := rapid.Bool().Draw(t, "isAdmin")

	numRequests := rapid.IntRange(1, 50).Draw(t, "numRequests")
	for i := 0; i < numRequests; i++ {
		if !rl.Allow(userID, isAdmin) {
			t.Fatalf("request %d of %d should have been allowed", i+1, numRequests)
		}
	}
}

func TestLimiterWithinBurst(t *testing.T) {
	rapid.Check(t, testLimiterWithinBurst)
}

// Property: once the burst is exhausted, the next request is blocked.
func testLimiterExhaustedBurstBlocks(t *rapid.T) {
	config := Config{
		UserRPS:         0.001, // negligible refill during the test
		UserBurst:       5,
		AdminRPS:        0.001,
		AdminBurst:      10,
		CleanupInterval: time.Hour,
	}

	rl := NewRateLimiter(config)
	defer rl.Stop()

	userID := userIDGenerator().Draw(t, "userID")
	isAdmin := rapid.Bool().Draw(t, "isAdmin")

	burst := config.UserBurst
	if isAdmin {
		burst = config.AdminBurst
	}
	for i := 0; i < burst; i++ {
		rl.Allow(userID, isAdmin)
	}

	if rl.Allow(userID, isAdmin) {
		t.Fatalf("request beyond burst of %d should have been blocked", burst)
	}
}

func TestLimiterExhaustedBurstBlocks(t *testing.T) {
	rapid.Check(t, testLimiterExhaustedBurstBlocks)
}

// Property: limits are independent per user.
func testLimiterUserIndependence(t *rapid.T) {
	config := Config{
		UserRPS:         0.001,
		UserBurst:       5,
		AdminRPS:        0.001,
		AdminBurst:      10,
		CleanupInterval: time.Hour,
	}

	rl := NewRateLimiter(config)
	defer rl.Stop()

	userID1 := userIDGenerator().Draw(t, "userID1")
	userID2 := userIDGenerator().Filter(func(s string) bool {
		return s != userID1
	}).Draw(t, "userID2")

	for i := 0; i < config.UserBurst; i++ {
		rl.Allow(userID1, false)
	}
	if rl.Allow(userID1, false) {
		t.Fatal("first user should be blocked after exhausting burst")
	}

	if !rl.Allow(userID2, false) {
		t.Fatal("second user should still be allowed")
	}
}

func TestLimiterUserIndependence(t *testing.T) {
	rapid.Check(t, testLimiterUserIndependence)
}

// Property: a role-tier change replaces the limiter.
func TestLimiterTierChangeReplacesLimiter(t *testing.T) {
	rl := NewRateLimiter(DefaultConfig)
	defer rl.Stop()

	userLimiter := rl.GetLimiter("u1", false)
	adminLimiter := rl.GetLimiter("u1", true)

	if userLimiter == adminLimiter {
		t.Fatal("tier change should create a new limiter")
	}
	if rl.GetLimiter("u1", true) != adminLimiter {
		t.Fatal("same tier should return the same limiter instance")
	}
}

func TestLimiterIdleCleanup(t *testing.T) {
	config := DefaultConfig
	config.CleanupInterval = 10 * time.Millisecond

	rl := NewRateLimiter(config)
	defer rl.Stop()

	rl.Allow("u1", false)
	rl.Allow("u2", true)
	if rl.Len() != 2 {
		t.Fatalf("expected 2 limiters, got %d", rl.Len())
	}

	time.Sleep(15 * time.Millisecond)
	rl.Cleanup()

	if rl.Len() != 0 {
		t.Fatalf("expected idle limiters to be removed, got %d", rl.Len())
	}
}

// Property: concurrent access neither loses nor duplicates requests.
func testLimiterConcurrentAccess(t *rapid.T) {
	config := Config{
		UserRPS:         1000.0,
		UserBurst:       2000,
		AdminRPS:        10000.0,
		AdminBurst:      20000,
		CleanupInterval: time.Hour,
	}

	rl := NewRateLimiter(config)
	defer rl.Stop()

	numUsers := rapid.IntRange(5, 20).Draw(t, "numUsers")
	numGoroutines := rapid.IntRange(5, 20).Draw(t, "numGoroutines")
	requestsPerGoroutine := rapid.IntRange(10, 50).Draw(t, "requestsPerGoroutine")

	userIDs := make([]string, numUsers)
	for i := 0; i < numUsers; i++ {
		userIDs[i] = userIDGenerator().Draw(t, "userID")
	}

	var wg sync.WaitGroup
	var successCount, failCount atomic.Int64

	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			for r := 0; r < requestsPerGoroutine; r++ {
				userID := userIDs[(goroutineID+r)%numUsers]
				isAdmin := (goroutineID+r)%2 == 0
				if rl.Allow(userID, isAdmin) {
					successCount.Add(1)
				} else {
					failCount.Add(1)
				}
			}
		}(g)
	}
	wg.Wait()

	total := int64(numGoroutines * requestsPerGoroutine)
	if got := successCount.Load() + failCount.Load(); got != total {
		t.Fatalf("request count mismatch: expected %d, got %d", total, got)
	}
	if successCount.Load() == 0 {
		t.Fatal("expected at least some requests to succeed")
	}
}

func TestLimiterConcurrentAccess(t *testing.T) {
	rapid.Check(t, testLimiterConcurrentAccess)
}

func TestStopReturnsPromptly(t *testing.T) {
	config := DefaultConfig
	config.CleanupInterval = 10 * time.Millisecond

	rl := NewRateLimiter(config)
	rl.Allow("u1", false)

	done := make(chan struct{})
	go func() {
		rl.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return within timeout")
	}
}
