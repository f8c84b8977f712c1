package rowio

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(n int) []*Row {
	var out []*Row
	for i := 0; i < n; i++ {
		out = append(out, &Row{Keys: []string{fmt.Sprint(i)}, Values: []float64{float64(i)}})
	}
	return out
}

type sideWriter struct {
	Array
	failAt    int
	closed    bool
	aborted   bool
	writeSeen int
}

func (s *sideWriter) Write(r *Row) error {
	s.writeSeen++
	if s.failAt > 0 && s.writeSeen == s.failAt {
		return errors.New("side failed")
	}
	return s.Array.Write(r)
}

func (s *sideWriter) Close() error {
	s.closed = true
	return nil
}

func (s *sideWriter) Abort() {
	s.aborted = true
}

func TestTeeSameSequence(t *testing.T) {
	primary := NewArray(nil)
	side := &sideWriter{}
	tee := NewTee(primary, side)
	require.NoError(t, Copy(tee, NewArray(rows(1000))))
	require.NoError(t, tee.Close())
	assert.True(t, side.closed)
	assert.Equal(t, primary.Rows(), side.Rows())
	assert.Len(t, side.Rows(), 1000)
}

func TestTeeSideFailureDoesNotDisturbPrimary(t *testing.T) {
	primary := NewArray(nil)
	side := &sideWriter{failAt: 3}
	tee := NewTee(primary, side)
	require.NoError(t, Copy(tee, NewArray(rows(10))))
	err := tee.Close()
	require.Error(t, err)
	assert.Len(t, primary.Rows(), 10)
	assert.True(t, side.aborted)
	assert.False(t, side.closed)
}

func TestTeeAbort(t *testing.T) {
	side := &sideWriter{}
	tee := NewTee(NewArray(nil), side)
	require.NoError(t, tee.Write(rows(1)[0]))
	tee.Abort()
	assert.True(t, side.aborted)
	assert.Len(t, side.Rows(), 1)
}

func TestLimitAndCounter(t *testing.T) {
	dst := NewArray(nil)
	c := NewCounter(Limit(dst, 3))
	err := Copy(c, NewArray(rows(5)))
	assert.ErrorIs(t, err, ErrLimit)
	assert.Equal(t, int64(3), c.Count())
	assert.Len(t, dst.Rows(), 3)
}

func TestMultiWriterAndContext(t *testing.T) {
	a, b := NewArray(nil), NewArray(nil)
	require.NoError(t, Copy(MultiWriter(a, b), NewArray(rows(2))))
	assert.Equal(t, a.Rows(), b.Rows())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, CopyWithContext(ctx, a, NewArray(rows(2))), context.Canceled)

	r := &Row{Keys: []string{"k"}, Values: []float64{1}}
	c := r.Copy()
	c.Keys[0] = "changed"
	assert.Equal(t, "k", r.Keys[0])
}
