package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClientSuccess(t *testing.T) {
	s := miniredis.RunT(t)

	ctx := context.Background()
	client, err := NewClient(ctx, fmt.Sprintf("redis://%s/2", s.Addr()), time.Second)
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	defer client.Close()

	if db := client.Options().DB; db != 2 {
		t.Errorf("expected database 2 from the URL, got %d", db)
	}
	if got := client.Options().ReadTimeout; got != time.Second {
		t.Errorf("expected read timeout 1s, got %v", got)
	}
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://bad-url", 0)
	if err == nil {
		t.Fatalf("expected error for invalid URL")
	}
}

func TestNewClientPingFailure(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close()

	_, err := NewClient(context.Background(), url, 200*time.Millisecond)
	if err == nil {
		t.Fatalf("expected ping error when server is down")
	}
}
