package fstream

// ErasedInputSource is the type-erased face of an InputSource[T], used by
// code (the namespace symbol table) that must hold inputs of differing
// element types in one collection. The TypeTag is the sole dynamic type
// check performed against it; AttachTo/ReadHistoryFrom/ReadStateFrom recover
// the static type via a type assertion back to *InputSource[T].
type ErasedInputSource interface {
	TypeTag() TypeTag
}

// InputSource is a type-erasable container owning exactly one StreamCore[T]
// for one symbol's declared element type T.
type InputSource[T any] struct {
	tag  TypeTag
	core *StreamCore[T]
}

// NewInputSource constructs an InputSource[T] with a fresh, unattached
// StreamCore. Wake-ups for readers allocated from it are dispatched through
// notifier.
func NewInputSource[T any](notifier *Notifier) *InputSource[T] {
	return &InputSource[T]{tag: TagOf[T](), core: NewCore[T](notifier)}
}

// TypeTag returns the TypeTag of T, implementing ErasedInputSource.
func (s *InputSource[T]) TypeTag() TypeTag {
	return s.tag
}

// Attach replaces the underlying StreamCore's upstream.
func (s *InputSource[T]) Attach(stream Upstream[T]) {
	s.core.Attach(stream)
}

// ReadHistory allocates a new full-fidelity reader over this source.
func (s *InputSource[T]) ReadHistory() *HistoryReader[T] {
	return newHistoryReader(s.core)
}

// ReadState allocates a new latest-value reader over this source.
func (s *InputSource[T]) ReadState() *StateReader[T] {
	return newStateReader(s.core)
}

// AttachErased attaches stream to src after recovering src's static type
// via a type assertion against *InputSource[T]. Returns ErrIncorrectType if
// src does not hold a StreamCore of T.
func AttachErased[T any](src ErasedInputSource, stream Upstream[T]) error {
	typed, ok := src.(*InputSource[T])
	if !ok {
		return ErrIncorrectType
	}
	typed.Attach(stream)
	return nil
}

// ReadHistoryErased allocates a history reader of T from src, after
// recovering src's static type. Returns ErrIncorrectType on a type mismatch.
func ReadHistoryErased[T any](src ErasedInputSource) (*HistoryReader[T], error) {
	typed, ok := src.(*InputSource[T])
	if !ok {
		return nil, ErrIncorrectType
	}
	return typed.ReadHistory(), nil
}

// ReadStateErased allocates a state reader of T from src, after recovering
// src's static type. Returns ErrIncorrectType on a type mismatch.
func ReadStateErased[T any](src ErasedInputSource) (*StateReader[T], error) {
	typed, ok := src.(*InputSource[T])
	if !ok {
		return nil, ErrIncorrectType
	}
	return typed.ReadState(), nil
}
