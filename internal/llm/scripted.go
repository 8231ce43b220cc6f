package llm

import (
	"context"
	"sync"
)

// ScriptedClient is a Client that replays canned replies in order. It is the
// deterministic seam for engine tests and offline demos: no network, no
// randomness, and every prompt it receives is recorded.
type ScriptedClient struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	next    int
	prompts []string
}

// NewScriptedClient creates a scripted client with no replies queued; an
// unqueued call returns an empty string.
func NewScriptedClient(replies ...string) *ScriptedClient {
	return &ScriptedClient{replies: replies}
}

// Queue appends a reply to the script.
func (c *ScriptedClient) Queue(reply string) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, reply)
	return c
}

// QueueError appends an error to the script; the corresponding call fails.
func (c *ScriptedClient) QueueError(err error) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.errs) < len(c.replies) {
		c.errs = append(c.errs, nil)
	}
	c.replies = append(c.replies, "")
	c.errs = append(c.errs, err)
	return c
}

// Generate returns the next scripted reply or error.
func (c *ScriptedClient) Generate(ctx context.Context, prompt string, _ GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)

	if c.next >= len(c.replies) {
		return "", nil
	}
	i := c.next
	c.next++
	if len(c.errs) > i && c.errs[i] != nil {
		return "", c.errs[i]
	}
	return c.replies[i], nil
}

// Prompts returns a copy of every prompt the client has received.
func (c *ScriptedClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Calls returns how many times Generate has been invoked.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

// Close is a no-op.
func (c *ScriptedClient) Close() error { return nil }
