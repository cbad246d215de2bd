// Package acl holds the anti-corruption layer between quote sources and the
// domain. Each adapter owns its external DTOs, decodes responses, and turns
// every failure into a [domain.FetchError] so nothing upstream ever sees an
// HTTP status or a feed parser error.
//
// Two sources implement [ports.QuoteFetcher]:
//
//   - [QuotableFetcher]: GET {base_url}/random returning {"content","author"}
//   - [FeedFetcher]: an RSS or Atom "quote of the day" feed; one item is picked at random
//
// Both embed [BaseAdapter], which issues the request through the instrumented
// [clients.Client] and maps failures with [MapHTTPError]:
//
//   - circuit open            → "circuit breaker open"
//   - caller cancelled        → "request canceled"
//   - transport failure       → "request failed: <cause>"
//   - 404                     → "HTTP 404: not found"
//   - 429                     → "rate limit exceeded"
//   - 5xx                     → "HTTP 5xx: <upstream message or status text>"
//   - undecodable body        → "decoding response: <cause>"
package acl
