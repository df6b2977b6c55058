package llm

import "context"

// Client is a minimal completion interface to allow pluggable providers.
// Implementations pin sampling temperature to 0 so repeated calls with the
// same prompt stay as reproducible as the provider allows.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
