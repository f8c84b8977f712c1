package runtime

import (
	"context"
	"time"

	"github.com/segmentio/ksuid"
)

// Context is the context of one query.  It carries the query's id and is
// canceled once the query's timeout passes.
type Context struct {
	context.Context
	ID     ksuid.KSUID
	cancel context.CancelFunc
}

// NewContext derives a query context from ctx.  A non-positive timeout
// means none.
func NewContext(ctx context.Context, timeout time.Duration) *Context {
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	return &Context{
		Context: ctx,
		ID:      ksuid.New(),
		cancel:  cancel,
	}
}

// Cancel releases the resources of the context.  It must be called once
// the query is done.
func (c *Context) Cancel() {
	c.cancel()
}
