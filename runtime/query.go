// Package runtime runs command lists against a session, serving repeated
// queries from a result cache.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brimdata/iql/command"
	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/resultcache"
	"github.com/brimdata/iql/rowio"
	"github.com/brimdata/iql/session"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

type Config struct {
	// Timeout bounds the run time of one query.  Zero means no bound.
	Timeout time.Duration
	// RowLimit is the maximum number of rows a query emits.  Zero means
	// no limit.
	RowLimit int
}

// Result describes a finished query.
type Result struct {
	ID ksuid.KSUID
	// Cached is true if the rows came from the result cache.
	Cached bool
	// Truncated is true if the query stopped at the row limit.
	Truncated bool
	Rows      int64
	// State is the grouping state after the last command.  It is the zero
	// State for cached results.
	State session.State
}

type Runner struct {
	pipeline *command.Pipeline
	cache    resultcache.Cache
	logger   *zap.Logger
	conf     Config
}

// NewRunner returns a Runner.  The cache may be nil.
func NewRunner(pipeline *command.Pipeline, cache resultcache.Cache, logger *zap.Logger, conf Config) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipeline == nil {
		pipeline = command.NewPipeline(logger, nil)
	}
	return &Runner{
		pipeline: pipeline,
		cache:    cache,
		logger:   logger,
		conf:     conf,
	}
}

// Run runs cmds over sess and writes their rows to sink.  Reaching the row
// limit is not an error; it is reported as Result.Truncated.
func (r *Runner) Run(ctx context.Context, sess *session.Session, cmds []command.Command, sink rowio.Writer) (*Result, error) {
	qctx := NewContext(ctx, r.conf.Timeout)
	defer qctx.Cancel()
	logger := r.logger.With(zap.Stringer("query", qctx.ID))
	start := time.Now()
	if sink == nil {
		sink = rowio.NewArray(nil)
	}
	var limited rowio.Writer = sink
	if r.conf.RowLimit > 0 {
		limited = rowio.Limit(sink, r.conf.RowLimit)
	}
	counter := rowio.NewCounter(limited)
	result := &Result{ID: qctx.ID}
	var key resultcache.Key
	if r.cache != nil {
		var err error
		key, err = resultcache.NewKey(cmds, r.conf.RowLimit, sess.Shards())
		if err != nil {
			return nil, err
		}
		ok, err := r.readCache(qctx, key, counter)
		if err != nil {
			return nil, err
		}
		if ok {
			result.Cached = true
			result.Rows = counter.Count()
			logger.Info("Query served from cache",
				zap.String("key", string(key)),
				zap.Int64("rows", result.Rows),
				zap.Duration("elapsed", time.Since(start)),
			)
			return result, nil
		}
	}
	var out rowio.Writer = counter
	var tee *rowio.Tee
	if r.cache != nil {
		w, err := r.cache.Write(qctx, key)
		if err != nil {
			logger.Warn("Result cache write failed", zap.Error(err))
		} else {
			tee = rowio.NewTee(counter, w)
			out = tee
		}
	}
	state, err := r.pipeline.Run(qctx, sess, session.NewState(), cmds, out)
	if errors.Is(err, rowio.ErrLimit) {
		result.Truncated = true
		err = nil
	}
	if err != nil {
		if tee != nil {
			tee.Abort()
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = iqe.E(iqe.Resource, fmt.Errorf("query exceeded timeout of %s: %w", r.conf.Timeout, err))
		}
		logger.Info("Query failed",
			zap.Int64("rows", counter.Count()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	if tee != nil {
		if err := tee.Close(); err != nil {
			logger.Warn("Result cache write failed", zap.Error(err))
		}
	}
	result.State = state
	result.Rows = counter.Count()
	logger.Info("Query done",
		zap.Bool("truncated", result.Truncated),
		zap.Int64("rows", result.Rows),
		zap.Int("depth", state.Depth()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (r *Runner) readCache(ctx context.Context, key resultcache.Key, w rowio.Writer) (bool, error) {
	ok, err := r.cache.IsCached(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	reader, err := r.cache.Read(ctx, key)
	if errors.Is(err, resultcache.ErrNotFound) {
		// Evicted between the check and the read.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	err = rowio.CopyWithContext(ctx, w, reader)
	if errors.Is(err, rowio.ErrLimit) {
		err = nil
	}
	return err == nil, err
}
