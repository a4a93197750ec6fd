/*
Package resilience provides the circuit breaker that guards calls to the
remote account and project API.

A breaker starts closed and counts results. When ReadyToTrip says so it opens
and fails calls fast with ErrCircuitOpen. After Timeout it admits up to
MaxRequests probes; that many consecutive successes close it, and any failure
opens it again.

	Closed --[ReadyToTrip]--> Open --[Timeout]--> Half-Open --[successes]--> Closed
	                           ^                      |
	                           +------[failure]-------+

IsFailure lets callers keep errors that only reject their input, such as a
wrong password, from counting against the backend:

	breaker := resilience.New("remote-api", resilience.Settings{
		Timeout: 30 * time.Second,
		IsFailure: func(err error) bool {
			var ce *collab.Error
			return err != nil && !errors.As(err, &ce)
		},
	})

	user, err := resilience.Call(ctx, breaker, func(ctx context.Context) (*collab.User, error) {
		return account.CurrentUser(ctx)
	})
*/
package resilience
