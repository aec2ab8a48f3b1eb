// Package health provides liveness and readiness probes.
//
// [LivenessHandler] always answers OK while the process runs.
// [ReadinessHandler] runs a set of named [Checks] in parallel, for example
// the dispatch log storage and the mail transport, and answers 503 when any
// of them fails. [Run] executes the same checks once and returns an error,
// which the command line uses to verify configuration before a batch.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "storage": store.Ping,
//	}, health.WithTimeout(3*time.Second)))
//
// Handlers respond with plain text ("OK" or "Service Unavailable") unless
// the client sends Accept: application/json or ?format=json:
//
//	{
//	  "status": "unhealthy",
//	  "checks": {
//	    "storage": {"status": "unhealthy", "error": "storage: backend unavailable"}
//	  }
//	}
package health
