// Package lifecycle provides the states and retry policy shared by lumux
// controllers.
//
// A sync controller moves through the states below; every transition is
// reported to an EventEmitter.
//
//   - Stopped -> Starting
//   - Starting -> Running, Stopping, Failed
//   - Running -> Stopping, Failed
//   - Stopping -> Stopped, Failed
//   - Failed -> Starting, Stopped
//
// Session establishment is retried with exponential backoff:
//
//	err := lifecycle.DefaultRetryPolicy().Retry(ctx, func(ctx context.Context, attempt int) error {
//	    return session.Connect(ctx)
//	})
package lifecycle
