/*
Package resilience provides the circuit breaker guarding calls to the
assistant model server.

	breaker := resilience.New("assistant", resilience.Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 5 },
		IsFailure: func(err error) bool { return !errors.Is(err, context.Canceled) },
	})

	reply, err := resilience.Do(breaker, func() (string, error) {
		return client.Generate(ctx, prompt)
	})

States move Closed -> Open after ReadyToTrip, Open -> Half-Open after
Timeout, and Half-Open -> Closed after MaxRequests consecutive successes.
Any failure while half-open opens the breaker again.
*/
package resilience
