package integration

import (
	"context"
	"net"
	"os"
	"testing"
	"time"
)

// Test configuration from environment or defaults
type TestConfig struct {
	ServerAddr string
}

func getTestConfig() TestConfig {
	return TestConfig{
		ServerAddr: getEnv("TEST_SERVER_ADDR", "localhost:8080"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// baseURL builds the HTTP base URL for the configured server address
func baseURL(cfg TestConfig) string {
	return "http://" + cfg.ServerAddr
}

// skipIfServerUnavailable skips the test if the server is not reachable
func skipIfServerUnavailable(t *testing.T, cfg TestConfig) {
	t.Helper()
	if !isServerAvailable(cfg.ServerAddr) {
		t.Skipf("Skipping: server not available at %s", cfg.ServerAddr)
	}
}

// isServerAvailable checks if a TCP connection can be established
func isServerAvailable(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// testContext returns a context with timeout for tests
func testContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// requireNoError fails the test if err is not nil
func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// requireTrue fails the test if condition is false
func requireTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Fatalf("Expected true: %s", msg)
	}
}

// requireEqual fails the test if expected != actual
func requireEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// requireNotEmpty fails the test if value is empty
func requireNotEmpty(t *testing.T, value string, msg string) {
	t.Helper()
	if value == "" {
		t.Fatalf("%s: expected non-empty string", msg)
	}
}

// logTestStart logs the start of a test with area info
func logTestStart(t *testing.T, area, testName string) {
	t.Helper()
	t.Logf("=== %s: %s ===", area, testName)
}
