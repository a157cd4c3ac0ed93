package llm

import (
	"context"
	"sync"
	"testing"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// --- Tests ---

func TestMockProviderRecordsCalls(t *testing.T) {
	mock := NewMockProvider("test")
	ctx := context.Background()

	req := CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}

	resp, err := mock.Complete(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}

	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}

	if mock.Calls[0].Model != "test-model" {
		t.Errorf("expected model 'test-model', got %q", mock.Calls[0].Model)
	}
}

func TestNewProviderUnsupported(t *testing.T) {
	_, err := NewProvider("carrier-pigeon", "any")
	if err == nil {
		t.Fatal("expected error for unsupported provider type")
	}
}

func TestNewProviderOllamaDefaultHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	p, err := NewProvider("ollama", "llama3")
	if err != nil {
		t.Fatalf("NewProvider(ollama): %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("expected provider name ollama, got %q", p.Name())
	}
}

func TestNewProviderMissingKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	if _, err := NewProvider("google", "gemini-2.5-flash"); err == nil {
		t.Error("expected error when GOOGLE_API_KEY is unset")
	}

	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewProvider("openai", "gpt-4o"); err == nil {
		t.Error("expected error when OPENAI_API_KEY is unset")
	}
}
