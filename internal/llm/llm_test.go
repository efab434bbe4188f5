package llm

import (
	"context"
	"errors"
	"testing"
)

func TestDisabled(t *testing.T) {
	client := Disabled{Name: "groq"}

	_, err := client.Complete(context.Background(), Request{User: "anything"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Complete() error = %v, want ErrNotConfigured", err)
	}
	if got := client.Provider(); got != "groq (disabled)" {
		t.Errorf("Provider() = %q", got)
	}
	if got := (Disabled{}).Provider(); got != "disabled" {
		t.Errorf("Provider() = %q, want disabled", got)
	}
}
