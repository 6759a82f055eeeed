package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mahi13singh2004/AIKYAM/internal/core/usecases"
)

type mockChatModel struct {
	completeFn func(ctx context.Context, prompt string) (string, error)
	prompts    []string
}

func (m *mockChatModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt)
	}
	return "", nil
}

func TestFormatCounselorReply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain paragraph", "  Hi there!\n\n  Stay safe and smile.  ", "1. Hi there! Stay safe and smile."},
		{"numbered items", "Stay alert. 1. Share your location 2. Carry a whistle", "1. Stay alert. 1. Share your location 2. Carry a whistle"},
		{"heading", "**Women's Safety Tips** 1. Trust your gut 2. Walk in lit areas", "Women's Safety Tips 1. Trust your gut 2. Walk in lit areas"},
		{"numbering continues", "Remember 4.Lock the door", "1. Remember 4. Lock the door"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := usecases.FormatCounselorReply(tt.in); got != tt.want {
				t.Errorf("FormatCounselorReply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCounselorService_Ask(t *testing.T) {
	model := &mockChatModel{
		completeFn: func(ctx context.Context, prompt string) (string, error) {
			return "You've got this! Keep a friend on call.", nil
		},
	}
	svc := usecases.NewCounselorService(model)

	reply, err := svc.Ask(context.Background(), "Walking home late, any advice?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "1. You've got this! Keep a friend on call." {
		t.Errorf("unexpected reply %q", reply)
	}
	if len(model.prompts) != 1 || !strings.HasSuffix(model.prompts[0], "\n\nUser's question: Walking home late, any advice?") {
		t.Errorf("unexpected prompt %q", model.prompts)
	}
}

func TestCounselorService_EmptyMessage(t *testing.T) {
	model := &mockChatModel{}
	svc := usecases.NewCounselorService(model)

	if _, err := svc.Ask(context.Background(), "  "); !errors.Is(err, usecases.ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if len(model.prompts) != 0 {
		t.Error("model must not be called for an empty message")
	}
}

func TestCounselorService_ModelError(t *testing.T) {
	model := &mockChatModel{
		completeFn: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	svc := usecases.NewCounselorService(model)

	if _, err := svc.Ask(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}
