package pubsub

import (
	"testing"

	"github.com/garagehub/procurement-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project string
		name    string
		want    string
	}{
		{"garage", "po-events", "projects/garage/topics/po-events"},
		{"garage", " projects/other/topics/x ", "projects/other/topics/x"},
		{"", "po-events", ""},
		{"garage", "  ", ""},
	}
	for _, tc := range cases {
		if got := topicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("topicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestTopicNamesDeduplicates(t *testing.T) {
	names := topicNames(config.PubSubConfig{ProcurementTopic: "events", InventoryTopic: " events "})
	if len(names) != 1 || names[0] != "events" {
		t.Fatalf("expected single topic, got %v", names)
	}
	if got := topicNames(config.PubSubConfig{}); len(got) != 0 {
		t.Fatalf("expected no topics, got %v", got)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("events") != nil {
		t.Fatal("expected nil publisher from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
