package session

import (
	"errors"
	"math"
	"testing"

	"github.com/brimdata/iql/backend"
	"github.com/brimdata/iql/backend/mock"
	iqe "github.com/brimdata/iql/errors"
	"github.com/brimdata/iql/group"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, names ...string) (*Session, []*mock.MockSession) {
	ctrl := gomock.NewController(t)
	var datasets []*Dataset
	var mocks []*mock.MockSession
	for _, name := range names {
		m := mock.NewMockSession(ctrl)
		mocks = append(mocks, m)
		datasets = append(datasets, &Dataset{
			Session: m,
			Schema:  backend.Schema{Dataset: name},
			Shards:  []string{name + "/2", name + "/1"},
		})
	}
	s, err := New(datasets, nil)
	require.NoError(t, err)
	return s, mocks
}

func TestSessionResolve(t *testing.T) {
	s, _ := newSession(t, "organic", "jobs")
	assert.Equal(t, []string{"jobs", "organic"}, s.Names())

	names, err := s.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs", "organic"}, names)

	names, err = s.Resolve([]string{"organic", "jobs", "organic"})
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs", "organic"}, names)

	_, err = s.Resolve([]string{"job"})
	require.Error(t, err)
	assert.True(t, iqe.IsValidation(err))
	assert.Contains(t, err.Error(), `did you mean "jobs"`)

	assert.Equal(t, []string{"jobs/1", "jobs/2"}, s.Shards()["jobs"])
	assert.Len(t, s.Sessions([]string{"jobs"}), 1)
}

func TestSessionNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
	d := &Dataset{Schema: backend.Schema{Dataset: "a"}}
	_, err = New([]*Dataset{d, d}, nil)
	assert.Error(t, err)
}

func TestSessionCloseCombinesErrors(t *testing.T) {
	s, mocks := newSession(t, "a", "b")
	mocks[0].EXPECT().Close().Return(errors.New("a failed"))
	mocks[1].EXPECT().Close().Return(errors.New("b failed"))
	err := s.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a failed")
	assert.Contains(t, err.Error(), "b failed")
}

func TestStateCopyOnWrite(t *testing.T) {
	s0 := NewState()
	s1 := s0.WithSaved("x", SavedStats{Values: []float64{0, 1}})
	s2 := s1.WithSaved("y", SavedStats{Values: []float64{0, 2}})
	s3 := s2.WithoutSaved("x")

	_, ok := s0.Saved("x")
	assert.False(t, ok)
	assert.Equal(t, []string{"x"}, s1.SavedNames())
	assert.Equal(t, []string{"x", "y"}, s2.SavedNames())
	assert.Equal(t, []string{"y"}, s3.SavedNames())
	assert.Equal(t, 1, s0.NumGroups())
	assert.Equal(t, 0, s0.Depth())
}

func TestPolicyMerge(t *testing.T) {
	values := []float64{0, 1, 2, 2, 5}
	// Groups 1,2 go to 1; 3 goes to 2; 4 is dropped.
	mapping := []int{0, 1, 1, 2, 0}

	out, err := SumAll.Merge("x", values, mapping, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3, 2}, out)

	_, err = TakeTheOneUniqueValue.Merge("x", values, mapping, 2)
	require.Error(t, err)
	assert.True(t, iqe.IsConsistency(err))

	out, err = TakeTheOneUniqueValue.Merge("x", []float64{0, 2, 2, 7, 5}, mapping, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 7}, out)

	out, err = TakeTheOneUniqueValue.Merge("x", []float64{0, math.NaN(), math.NaN(), 1}, mapping, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out[1]))

	_, err = FailIfPresent.Merge("x", values, mapping, 2)
	require.Error(t, err)
	assert.True(t, iqe.IsConsistency(err))

	_, err = SumAll.Merge("x", values, []int{0, 9}, 2)
	assert.True(t, iqe.IsConsistency(err))
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{SumAll, TakeTheOneUniqueValue, FailIfPresent} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePolicy("average")
	assert.Error(t, err)
}

func explode(t *testing.T, k *group.KeySet, fanout int) *group.KeySet {
	b := group.NewBuilder(k)
	for p := 1; p <= k.NumGroups(); p++ {
		for i := 0; i < fanout; i++ {
			_, err := b.Add(p, group.DefaultKey{})
			require.NoError(t, err)
		}
	}
	return b.Build()
}

func TestStateRegroup(t *testing.T) {
	k1 := explode(t, group.New(), 2)
	k2 := explode(t, k1, 2)
	s := NewState().
		WithKeys(k1).
		WithSaved("top", SavedStats{Depth: 1, Values: []float64{0, 10, 20}}).
		WithKeys(k2).
		WithSaved("leaf", SavedStats{Depth: 2, Values: []float64{0, 1, 2, 3, 4}})

	mapping := []int{0, 1, 1, 2, 2}
	up, err := s.Regroup(SumAll, k1, mapping)
	require.NoError(t, err)
	assert.Equal(t, 1, up.Depth())
	leaf, ok := up.Saved("leaf")
	require.True(t, ok)
	assert.Equal(t, SavedStats{Depth: 1, Values: []float64{0, 3, 7}}, leaf)
	top, _ := up.Saved("top")
	assert.Equal(t, []float64{0, 10, 20}, top.Values)

	// The input state is untouched, including on failure.
	_, err = s.Regroup(FailIfPresent, k1, mapping)
	require.Error(t, err)
	leaf, _ = s.Saved("leaf")
	assert.Equal(t, 2, leaf.Depth)
	assert.Equal(t, 2, s.Depth())
}
