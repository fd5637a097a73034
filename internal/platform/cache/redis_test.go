package cache

import (
	"os"
	"strings"
	"testing"
)

func TestNewRedisClient_UnreachableAddr(t *testing.T) {
	// 端口 1 上不会有 redis
	_, err := NewRedisClient("127.0.0.1:1", "", 0)
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
	if !strings.Contains(err.Error(), "127.0.0.1:1") {
		t.Fatalf("error should name the address, got %q", err)
	}
}

func TestNewRedisClient_Ping(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := NewRedisClient(addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Skipf("skip: redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
}
