package filter

// Translator projects an element onto a comparison or output value
type Translator[E, T any] interface {
	Translate(element E) T
}

// Bidirectional is a Translator that can also map a result back to the
// original element type. It is used when translated results are written into
// a store of the original types.
type Bidirectional[E, T any] interface {
	Translator[E, T]
	Revert(value T) E
}

// TranslatorFunc adapts an ordinary function to the Translator interface
type TranslatorFunc[E, T any] func(element E) T

// Translate calls f(element)
func (f TranslatorFunc[E, T]) Translate(element E) T {
	return f(element)
}

type identity[E any] struct{}

func (identity[E]) Translate(element E) E { return element }

func (identity[E]) Revert(value E) E { return value }

// Identity returns the translator mapping every element onto itself
func Identity[E any]() Bidirectional[E, E] {
	return identity[E]{}
}

type bidirectionalFuncs[E, T any] struct {
	translate func(E) T
	revert    func(T) E
}

func (b bidirectionalFuncs[E, T]) Translate(element E) T { return b.translate(element) }

func (b bidirectionalFuncs[E, T]) Revert(value T) E { return b.revert(value) }

// Reversible builds a Bidirectional translator from a pair of functions
func Reversible[E, T any](translate func(E) T, revert func(T) E) (Bidirectional[E, T], error) {
	if translate == nil || revert == nil {
		return nil, ErrIllegalConfiguration
	}
	return bidirectionalFuncs[E, T]{translate: translate, revert: revert}, nil
}
