package pubsub

import (
	"context"
	"testing"

	"github.com/roorreach/marketplace-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "rr-prod"}

	if got := c.topicResourceName("domain-events"); got != "projects/rr-prod/topics/domain-events" {
		t.Fatalf("unexpected topic name %q", got)
	}
	full := "projects/other/topics/events"
	if got := c.topicResourceName(full); got != full {
		t.Fatalf("full topic names should pass through, got %q", got)
	}
	if got := c.subscriptionResourceName(" audit "); got != "projects/rr-prod/subscriptions/audit" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	if got := c.subscriptionResourceName(""); got != "" {
		t.Fatalf("empty names should resolve to empty, got %q", got)
	}

	noProject := &Client{}
	if got := noProject.topicResourceName("x"); got != "" {
		t.Fatalf("expected empty name without project, got %q", got)
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("x") != nil {
		t.Fatal("nil client should return nil publisher")
	}
	if c.Subscription("x") != nil {
		t.Fatal("nil client should return nil subscriber")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error on nil client")
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), configWithProject(""), domainConfig(), nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}

func configWithProject(id string) config.GCPConfig {
	return config.GCPConfig{ProjectID: id}
}

func domainConfig() config.PubSubConfig {
	return config.PubSubConfig{DomainTopic: "rr-domain-events"}
}
