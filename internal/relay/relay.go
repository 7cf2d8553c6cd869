// Package relay forwards chat messages to the configured LLM provider and
// maintains the shared conversation log.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/PSCyberGeek/forge-ai/internal/provider"
	"github.com/PSCyberGeek/forge-ai/internal/store"
)

var (
	// ErrEmptyMessage is returned before any network call is made.
	ErrEmptyMessage = errors.New("no message provided")

	// ErrNotConfigured is returned when no upstream credential is configured.
	ErrNotConfigured = errors.New("API key not configured")
)

// UpstreamError carries the upstream failure text. No retry is attempted;
// the request must be resubmitted by the user.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

const (
	// maxOutboundHistory bounds how much persisted log is replayed upstream.
	maxOutboundHistory = 40

	maxTokens = 4000
)

// Relay sends user messages upstream and persists the exchange.
type Relay struct {
	provider     provider.Provider
	history      store.HistoryStore
	systemPrompt string
	model        string
}

// New creates a relay. provider may be nil when no credential is configured;
// every Send then fails with ErrNotConfigured. history may be nil to disable
// persistence.
func New(p provider.Provider, history store.HistoryStore, systemPrompt, model string) *Relay {
	return &Relay{
		provider:     p,
		history:      history,
		systemPrompt: systemPrompt,
		model:        model,
	}
}

// Send forwards message to the provider and returns the assistant reply.
// The message is annotated with a bracketed language hint; the outbound
// conversation is the tail of the persisted log, then the caller-supplied
// history, then the annotated message. On success both sides of the exchange
// are appended to the persisted log.
func (r *Relay) Send(ctx context.Context, message, languageHint string, callerHistory []provider.Message) (string, error) {
	if message == "" {
		return "", ErrEmptyMessage
	}
	if r.provider == nil {
		return "", ErrNotConfigured
	}
	if languageHint == "" {
		languageHint = "python"
	}

	annotated := fmt.Sprintf("[Language: %s]\n\n%s", languageHint, message)

	var msgs []provider.Message
	if r.history != nil {
		persisted, err := r.history.Recent(maxOutboundHistory)
		if err != nil {
			return "", err
		}
		msgs = append(msgs, persisted...)
	}
	msgs = append(msgs, callerHistory...)
	msgs = append(msgs, provider.Message{Role: provider.RoleUser, Content: annotated})

	resp, err := r.provider.Complete(ctx, &provider.Request{
		Model:        r.model,
		Messages:     msgs,
		SystemPrompt: r.systemPrompt,
		MaxTokens:    maxTokens,
	})
	if err != nil {
		return "", &UpstreamError{Err: err}
	}

	if r.history != nil {
		err := r.history.Append(
			provider.Message{Role: provider.RoleUser, Content: annotated},
			provider.Message{Role: provider.RoleAssistant, Content: resp.Text},
		)
		if err != nil {
			return "", err
		}
	}

	return resp.Text, nil
}

// Configured reports whether Send can reach an upstream.
func (r *Relay) Configured() bool { return r.provider != nil }
