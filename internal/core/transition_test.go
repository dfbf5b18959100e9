package core

import (
	"context"
	"errors"
	"testing"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

// incr changes state unless by is zero.
func incr(s *counter, by int) (*counter, bool, error) {
	if by == 0 {
		return s, false, nil
	}
	return &counter{n: s.n + by}, true, nil
}

var errNegative = errors.New("negative")

func checked(s *counter, by int) (*counter, bool, error) {
	if by < 0 {
		return s, false, errNegative
	}
	return incr(s, by)
}

func TestApplyUnchangedKeepsReference(t *testing.T) {
	tr := New("incr", incr)
	s := &counter{n: 1}

	first, err := tr.Apply(Start(s), 0)
	require.NoError(t, err)
	second, err := tr.Apply(first, 0)
	require.NoError(t, err)

	assert.False(t, second.Changed)
	assert.Same(t, s, first.State)
	assert.Same(t, s, second.State)
}

func TestApplyOrsChangedFlag(t *testing.T) {
	tr := New("incr", incr)
	out, err := tr.Apply(Result[*counter]{State: &counter{}, Changed: true}, 0)
	require.NoError(t, err)
	assert.True(t, out.Changed)
}

func TestApplyContractViolations(t *testing.T) {
	liar := New("liar", func(s *counter, _ int) (*counter, bool, error) {
		return &counter{n: s.n}, false, nil
	})
	_, err := liar.Apply(Start(&counter{}), 1)
	assert.True(t, domain.IsInvariant(err))

	sameButChanged := New("same", func(s *counter, _ int) (*counter, bool, error) {
		return s, true, nil
	})
	_, err = sameButChanged.Apply(Start(&counter{}), 1)
	assert.True(t, domain.IsInvariant(err))
}

func TestRunFiresHooksOnlyOnChange(t *testing.T) {
	var order []string
	tr := New("incr", incr,
		OnBroadcast(func(context.Context, *counter) { order = append(order, "broadcast") }),
		OnPersist(func(context.Context, *counter) { order = append(order, "persist") }),
	)

	_, err := tr.Run(context.Background(), &counter{}, 0)
	require.NoError(t, err)
	assert.Empty(t, order)

	out, err := tr.Run(context.Background(), &counter{}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, out.State.n)
	assert.Equal(t, []string{"persist", "broadcast"}, order)
}

func TestRunErrorSkipsHooks(t *testing.T) {
	fired := false
	tr := New("checked", checked, OnPersist(func(context.Context, *counter) { fired = true }))
	s := &counter{}
	out, err := tr.Run(context.Background(), s, -1)
	assert.ErrorIs(t, err, errNegative)
	assert.Same(t, s, out.State)
	assert.False(t, fired)
}

func TestExtendDoesNotMutateOriginal(t *testing.T) {
	var base, extra int
	tr := New("incr", incr, OnPersist(func(context.Context, *counter) { base++ }))
	ext := tr.Extend(OnBroadcast(func(context.Context, *counter) { extra++ }))

	_, err := tr.Run(context.Background(), &counter{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, base)
	assert.Equal(t, 0, extra)

	_, err = ext.Run(context.Background(), &counter{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, base)
	assert.Equal(t, 1, extra)

	cp := tr.Copy()
	assert.Equal(t, tr.Name(), cp.Name())
	assert.NotSame(t, tr, cp)
}

func TestExtendReplacesNormalizer(t *testing.T) {
	registered := &counter{n: 10}
	tr := New("incr", incr).Extend(WithNormalizer(func(in Result[*counter]) (Result[*counter], error) {
		return Result[*counter]{State: registered, Changed: in.Changed}, nil
	}))
	out, err := tr.Apply(Start(&counter{}), 1)
	require.NoError(t, err)
	assert.Equal(t, 11, out.State.n)

	failing := tr.Extend(WithNormalizer(func(in Result[*counter]) (Result[*counter], error) {
		return in, errNegative
	}))
	_, err = failing.Apply(Start(&counter{}), 1)
	assert.ErrorIs(t, err, errNegative)
}

func TestChainStopsAtFirstError(t *testing.T) {
	tr := New("checked", checked)
	s := &counter{}

	out, err := Chain(Start(s), Bind(tr, 0), Bind(tr, 3), Bind(tr, 0))
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, 3, out.State.n)

	_, err = Chain(Start(s), Bind(tr, 1), Bind(tr, -1), Bind(tr, 5))
	assert.ErrorIs(t, err, errNegative)
}

func TestSequenceFiresHooksOnce(t *testing.T) {
	tr := New("incr", incr)
	fired := 0
	seq := Sequence("twice", func(by int) []Step[*counter] {
		return []Step[*counter]{Bind(tr, by), Bind(tr, by)}
	}, OnPersist(func(context.Context, *counter) { fired++ }))

	s := &counter{}
	out, err := seq.Run(context.Background(), s, 0)
	require.NoError(t, err)
	assert.Same(t, s, out.State)
	assert.Zero(t, fired)

	out, err = seq.Run(context.Background(), s, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, out.State.n)
	assert.Equal(t, 1, fired)
}
