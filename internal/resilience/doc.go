// Package resilience provides the fault tolerance patterns that sit between
// the fetch orchestrator and the tool server.
//
// Subpackages:
//   - circuitbreaker: the shared batch breaker and the gateway transport breaker
//   - retry: bounded tool-call retry with reconnect, and backoff helpers
//
// Usage Example:
//
//	breaker := circuitbreaker.New(circuitbreaker.DefaultConfig())
//	ctrl := retry.NewController(client, retry.DefaultControllerConfig())
//	if permit, ok := breaker.Acquire(); ok {
//	    result, err := ctrl.CallToolWithRetry(ctx, mcp.MEPsRequest{}, 2)
//	    // ...
//	}
package resilience
