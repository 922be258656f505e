package inference

import (
	"context"
	"strings"
	"testing"
)

func TestMockGenerateDeterministic(t *testing.T) {
	client := NewMockClient("gemini-test")

	first, err := client.Generate(context.Background(), "Who founded the BBC?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	second, err := client.Generate(context.Background(), "Who founded the BBC?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if first.Text != second.Text {
		t.Error("mock backend is not deterministic")
	}
	if !strings.Contains(first.Text, "Who founded the BBC?") {
		t.Error("mock response should echo the prompt")
	}
	if !strings.Contains(first.Text, "# Research Results") {
		t.Error("mock response should be a markdown report")
	}
}

func TestMockGenerateEchoesFirstLineOnly(t *testing.T) {
	client := NewMockClient("gemini-test")

	result, err := client.Generate(context.Background(), "first line\n\nthe suffix text")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(result.Text, "> first line") {
		t.Errorf("mock response should quote the first prompt line, got %q", result.Text)
	}
	if strings.Contains(result.Text, "the suffix text") {
		t.Error("mock response should not echo the suffix")
	}
}

func TestMockGenerateCancelledContext(t *testing.T) {
	client := NewMockClient("gemini-test")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, "hi")
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if KindOf(err) != KindTransport {
		t.Errorf("Kind = %v, want transport", KindOf(err))
	}
}
