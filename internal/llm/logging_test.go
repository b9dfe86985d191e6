package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type recordedEvents struct {
	events []RequestEvent
	err    error
	ctxErr error
}

func (r *recordedEvents) AppendLLMRequest(ctx context.Context, ev RequestEvent) error {
	r.events = append(r.events, ev)
	r.ctxErr = ctx.Err()
	return r.err
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"recommendations":[]}`),
		Usage:   Usage{InputTokens: 120, OutputTokens: 40},
	})
	rec := &recordedEvents{}
	p := WithLogging(mock, ProviderMock, rec)

	ctx := WithPurpose(context.Background(), "recommendation")
	_, err := p.Generate(ctx, Request{
		System:   "You are a career advisor.",
		Messages: []Message{{Role: RoleUser, Content: "Suggest careers."}},
		Schema:   careerSchema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.events))
	}
	ev := rec.events[0]
	if !ev.Success || ev.Purpose != "recommendation" || ev.Provider != "mock" {
		t.Errorf("event = %+v", ev)
	}
	if ev.InputTokens != 120 || ev.OutputTokens != 40 {
		t.Errorf("tokens = %d/%d", ev.InputTokens, ev.OutputTokens)
	}
	for _, want := range []string{"[system]", "career advisor", "[user]", "[schema: test-career]"} {
		if !strings.Contains(ev.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, ev.RequestBody)
		}
	}
	if ev.ResponseBody != `{"recommendations":[]}` {
		t.Errorf("response body = %q", ev.ResponseBody)
	}
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: errors.New("quota exceeded")})
	rec := &recordedEvents{}
	p := WithLogging(mock, ProviderOpenAI, rec)

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	ev := rec.events[0]
	if ev.Success || ev.ErrorMessage != "quota exceeded" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Purpose != "unknown" {
		t.Errorf("purpose = %q, want unknown", ev.Purpose)
	}
}

func TestLoggingProvider_RecorderErrorDoesNotFailRequest(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]bool{"ok": true}))
	rec := &recordedEvents{err: errors.New("db locked")}
	p := WithLogging(mock, ProviderMock, rec)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("recording failure leaked into request: %v", err)
	}
}

func TestLoggingProvider_RecordsAfterCancel(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]bool{"ok": true}))
	rec := &recordedEvents{}
	p := WithLogging(mock, ProviderMock, rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = p.Generate(ctx, Request{})
	if len(rec.events) != 1 {
		t.Fatalf("expected event for cancelled request")
	}
	if rec.ctxErr != nil {
		t.Errorf("recorder saw cancelled context: %v", rec.ctxErr)
	}
}
