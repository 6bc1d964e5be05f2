package repokit

// Binder attaches a domain repo to a Queryer. The label cache binds the same
// SQL repo to the sqlite or postgres seam depending on the configured backend,
// and a binder lets the module pick the seam after migration has run on it
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a plain constructor to Binder
type BindFunc[T any] func(Queryer) T

// Bind implements Binder
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// RequireQueryer panics on a nil seam. A backend selected in config but never
// opened is a wiring bug, not a runtime condition
func RequireQueryer(q Queryer) Queryer {
	if q == nil {
		panic("repokit: bind on a nil Queryer")
	}
	return q
}

// MustBind checks q and binds b to it
func MustBind[T any](b Binder[T], q Queryer) T {
	return b.Bind(RequireQueryer(q))
}
