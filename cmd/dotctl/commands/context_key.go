package commands

import "context"

// ClientContextKey is used for storing the API client in context for
// commands. All command handlers and the main entry point must use this same
// key to ensure the client can be retrieved from the context.
var ClientContextKey = &struct{}{}

// clientFromContext retrieves the API client placed in context by main.
func clientFromContext(ctx context.Context) (Client, bool) {
	c, ok := ctx.Value(ClientContextKey).(Client)
	return c, ok
}
