// Package judge implements the HTTP client for the external semantic judge:
// batched transcript excerpts go out as one chat-completion request, one
// interestingness score in [0,1] per excerpt comes back. The client retries
// transient HTTP failures with exponential backoff and tolerates the JSON
// formatting quirks chat models produce.
package judge
