package core

import (
	"context"
	"slices"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
)

// Result is a state together with whether any step so far changed it.
// Unchanged results carry the exact state value they were given.
type Result[S comparable] struct {
	State   S
	Changed bool
}

// Start turns a bare state into the beginning of a chain.
func Start[S comparable](s S) Result[S] { return Result[S]{State: s} }

// Func is a raw transition. Returning (state, false, nil) means there is
// nothing to do; an error means the action is not allowed.
type Func[S comparable, A any] func(state S, args A) (S, bool, error)

// Hook runs after a call that changed state.
type Hook[S comparable] func(ctx context.Context, state S)

// Normalizer prepares the incoming result before the raw transition sees it,
// e.g. to swap a held value for the currently registered one.
type Normalizer[S comparable] func(in Result[S]) (Result[S], error)

type hookPhase int

const (
	phasePersist hookPhase = iota
	phaseBroadcast
)

type hook[S comparable] struct {
	phase hookPhase
	fn    Hook[S]
}

type settings[S comparable] struct {
	normalize Normalizer[S]
	hooks     []hook[S]
}

type Option[S comparable] func(*settings[S])

// OnPersist registers a hook that runs before every broadcast hook.
func OnPersist[S comparable](fn Hook[S]) Option[S] {
	return func(s *settings[S]) { s.hooks = append(s.hooks, hook[S]{phase: phasePersist, fn: fn}) }
}

func OnBroadcast[S comparable](fn Hook[S]) Option[S] {
	return func(s *settings[S]) { s.hooks = append(s.hooks, hook[S]{phase: phaseBroadcast, fn: fn}) }
}

// WithNormalizer replaces the normalizer.
func WithNormalizer[S comparable](n Normalizer[S]) Option[S] {
	return func(s *settings[S]) { s.normalize = n }
}

// Transition wraps a raw Func with change-flag checking and side-effect hooks.
// A Transition is never modified after construction; Copy and Extend derive new ones.
type Transition[S comparable, A any] struct {
	name string
	fn   Func[S, A]
	settings[S]
}

func New[S comparable, A any](name string, fn Func[S, A], opts ...Option[S]) *Transition[S, A] {
	t := &Transition[S, A]{name: name, fn: fn}
	for _, opt := range opts {
		opt(&t.settings)
	}
	return t
}

func (t *Transition[S, A]) Name() string { return t.name }

// Apply runs one step of a chain without firing hooks. The returned Changed is
// the OR of in.Changed and this step.
func (t *Transition[S, A]) Apply(in Result[S], args A) (Result[S], error) {
	if t.normalize != nil {
		var err error
		if in, err = t.normalize(in); err != nil {
			return in, err
		}
	}
	next, changed, err := t.fn(in.State, args)
	if err != nil {
		return in, err
	}
	switch {
	case !changed && next != in.State:
		return in, &domain.InvariantViolation{Op: t.name, Detail: "reported unchanged but returned a different state"}
	case changed && next == in.State:
		return in, &domain.InvariantViolation{Op: t.name, Detail: "reported changed but returned the same state"}
	}
	return Result[S]{State: next, Changed: in.Changed || changed}, nil
}

// Run is the externally visible call: it applies the transition to a bare
// state and fires the hooks once if the result changed.
func (t *Transition[S, A]) Run(ctx context.Context, state S, args A) (Result[S], error) {
	return t.RunFrom(ctx, Start(state), args)
}

// RunFrom continues from an already started result.
func (t *Transition[S, A]) RunFrom(ctx context.Context, in Result[S], args A) (Result[S], error) {
	out, err := t.Apply(in, args)
	if err != nil {
		return out, err
	}
	if out.Changed {
		t.fire(ctx, out.State)
	}
	return out, nil
}

func (t *Transition[S, A]) fire(ctx context.Context, state S) {
	for _, phase := range []hookPhase{phasePersist, phaseBroadcast} {
		for _, h := range t.hooks {
			if h.phase == phase {
				h.fn(ctx, state)
			}
		}
	}
}

// Copy returns a transition with the same behavior and an independent hook list.
func (t *Transition[S, A]) Copy() *Transition[S, A] {
	c := *t
	c.hooks = slices.Clone(t.hooks)
	return &c
}

// Extend returns a copy with opts applied on top: hooks are appended after the
// existing ones and a WithNormalizer option replaces the normalizer.
func (t *Transition[S, A]) Extend(opts ...Option[S]) *Transition[S, A] {
	c := t.Copy()
	for _, opt := range opts {
		opt(&c.settings)
	}
	return c
}

// Step is one link of a chain.
type Step[S comparable] func(in Result[S]) (Result[S], error)

// Bind fixes the arguments of t so it can be used as a chain step.
func Bind[S comparable, A any](t *Transition[S, A], args A) Step[S] {
	return func(in Result[S]) (Result[S], error) { return t.Apply(in, args) }
}

// Chain folds steps left to right. The first error stops the chain and is
// returned as is.
func Chain[S comparable](in Result[S], steps ...Step[S]) (Result[S], error) {
	for _, step := range steps {
		var err error
		if in, err = step(in); err != nil {
			return in, err
		}
	}
	return in, nil
}

// Sequence packages a chain as a single transition so it can carry hooks.
func Sequence[S comparable, A any](name string, build func(A) []Step[S], opts ...Option[S]) *Transition[S, A] {
	return New(name, func(state S, args A) (S, bool, error) {
		out, err := Chain(Start(state), build(args)...)
		if err != nil {
			return state, false, err
		}
		return out.State, out.Changed, nil
	}, opts...)
}
