package core

import "context"

// backgroundCtx is the uncancelled context used throughout the core test
// suite; none of these tests exercise DELAY/BREAK cancellation.
func backgroundCtx() context.Context { return context.Background() }
