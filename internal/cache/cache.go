// Package cache holds recently computed analysis results so a follow-up
// report request can reuse them.
package cache

import (
	"context"

	"github.com/sells-group/planpilot/internal/model"
)

// Store caches analysis results by postcode. A miss is never an error.
// Stored results are shared and must not be modified by callers.
type Store interface {
	Get(ctx context.Context, postcode string) (*model.AnalysisResult, bool)
	Put(ctx context.Context, postcode string, result *model.AnalysisResult)
}

// Key is the cache key for a postcode: upper-case, no whitespace.
func Key(postcode string) string {
	return model.PostcodeKey(postcode)
}
