package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Worker is a background job supervised next to the HTTP server. Run blocks
// until ctx is cancelled.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}
