/*
Package assistant proxies code-suggestion and chat requests to an
Ollama-compatible model server.

Requests go through a resty client backed by a retrying transport, a rate
limiter and a circuit breaker. When the model server is unreachable,
Suggest returns an explanatory placeholder instead of an error so the
editor keeps working.
*/
package assistant
