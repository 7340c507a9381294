package fns

import (
	"context"
	"sync"

	"github.com/mediocregopher/florun/fderiv"
	"github.com/mediocregopher/florun/fstream"
	"github.com/mediocregopher/florun/fsym"
	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mlog"
)

type defKind int

const (
	defInput defKind = iota
	defActiveScript
	defComputing
	defStreaming
	defScriptError
	defNamespace
)

type symbolDef struct {
	kind defKind

	tag    fstream.TypeTag     // Input
	source fstream.ErasedInputSource // Input, ActiveScript

	sourceText string // Computing, Streaming
	errMsg     string // ScriptError

	child *Namespace // Namespace
}

// CompiledScript is what an Evaluator returns for a successfully compiled
// computing script: enough to construct the ActiveScript's InputSource and
// drive its ComputingStream.
type CompiledScript struct {
	// Tag is the declared element type of the compiled expression's output.
	Tag fstream.TypeTag
	// Start builds the ActiveScript's backing InputSource, wiring a
	// ComputingStream as its upstream. notifier is the owning namespace's
	// wake-up dispatcher; env is scoped to this one materialisation.
	Start func(notifier *fstream.Notifier, env *fderiv.Env) fstream.ErasedInputSource
}

// Evaluator is the script evaluator contract (an opaque collaborator; see
// feval for the one concrete implementation used by this module). Compile
// is asked to compile sourceText naming sym, under the given run_io policy,
// and either returns a CompiledScript or a human-readable error message.
type Evaluator interface {
	Compile(symName string, sourceText string, runIO bool) (CompiledScript, error)
}

// EvaluatorFactory constructs a fresh Evaluator instance for one namespace,
// lazily, on first need.
type EvaluatorFactory func() Evaluator

// UpdateSink receives NotebookUpdate-shaped notifications as a namespace's
// symbol table changes. Satisfied by *fhost.Host; nil is valid and means
// "don't bother".
type UpdateSink interface {
	Emit(kind string, sym fsym.Symbol, detail string)
}

// Namespace is a mapping from Symbol to SymbolDef, plus a lazily-created
// script evaluator instance and a run_io policy flag. All operations are
// serialised against this Namespace; child namespaces (created via
// GetOrCreateChild) serialise independently.
type Namespace struct {
	cmp      *mcmp.Component
	notifier *fstream.Notifier
	evalFac  EvaluatorFactory
	sink     UpdateSink

	mu    sync.Mutex
	defs  map[fsym.Symbol]*symbolDef
	eval  Evaluator
	runIO bool
}

// New constructs a root Namespace. notifier dispatches wake-ups for every
// StreamCore created within this namespace (and its descendants); evalFac
// constructs a fresh Evaluator on first need; sink may be nil.
func New(cmp *mcmp.Component, notifier *fstream.Notifier, evalFac EvaluatorFactory, sink UpdateSink) *Namespace {
	return &Namespace{
		cmp:      cmp,
		notifier: notifier,
		evalFac:  evalFac,
		sink:     sink,
		defs:     map[fsym.Symbol]*symbolDef{},
	}
}

func (ns *Namespace) emit(kind string, sym fsym.Symbol, detail string) {
	if ns.sink != nil {
		ns.sink.Emit(kind, sym, detail)
	}
}

// Clear drops every definition and the evaluator instance.
func (ns *Namespace) Clear() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.defs = map[fsym.Symbol]*symbolDef{}
	ns.eval = nil
	ns.emit("clear", fsym.Symbol{}, "")
}

// DefineInput inserts a fresh, unattached Input definition for sym with the
// given declared element type.
func DefineInput[T any](ns *Namespace, sym fsym.Symbol) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	src := fstream.NewInputSource[T](ns.notifier)
	ns.defs[sym] = &symbolDef{kind: defInput, tag: src.TypeTag(), source: src}
	ns.emit("define_input", sym, src.TypeTag().String())
}

// InputFactory builds a fresh, unattached InputSource of some statically
// known T, type-erased. Used to recover a concrete type from a dynamic
// TypeTag at the edit-protocol boundary, where SetInputType carries only a
// TypeTag and not a type parameter.
type InputFactory func(notifier *fstream.Notifier) fstream.ErasedInputSource

// InputFactoryRegistry maps TypeTags to InputFactorys, so that an edit
// naming a TypeTag (rather than a Go type parameter) can still construct
// the right kind of InputSource.
type InputFactoryRegistry struct {
	mu        sync.Mutex
	factories map[fstream.TypeTag]InputFactory
}

// NewInputFactoryRegistry constructs an empty registry.
func NewInputFactoryRegistry() *InputFactoryRegistry {
	return &InputFactoryRegistry{factories: map[fstream.TypeTag]InputFactory{}}
}

// RegisterInputFactory registers T's TypeTag against a factory producing a
// fresh InputSource[T].
func RegisterInputFactory[T any](reg *InputFactoryRegistry) {
	tag := fstream.TagOf[T]()
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.factories[tag] = func(notifier *fstream.Notifier) fstream.ErasedInputSource {
		return fstream.NewInputSource[T](notifier)
	}
}

func (reg *InputFactoryRegistry) lookup(tag fstream.TypeTag) (InputFactory, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	f, ok := reg.factories[tag]
	return f, ok
}

// DefineInputTagged inserts a fresh Input definition for sym with the
// element type identified by tag, using a factory registered against reg.
// Fails with ErrIncorrectType if no factory was registered for tag.
func (reg *InputFactoryRegistry) DefineInputTagged(ns *Namespace, sym fsym.Symbol, tag fstream.TypeTag) error {
	factory, ok := reg.lookup(tag)
	if !ok {
		return ErrIncorrectType
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()
	src := factory(ns.notifier)
	ns.defs[sym] = &symbolDef{kind: defInput, tag: tag, source: src}
	ns.emit("define_input", sym, tag.String())
	return nil
}

// Undefine removes sym's entry, if any. A no-op if sym is undefined.
func (ns *Namespace) Undefine(sym fsym.Symbol) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	delete(ns.defs, sym)
	ns.emit("undefine", sym, "")
}

// SetComputingScript inserts a Computing definition holding sourceText,
// replacing whatever was there before. The script isn't compiled until it's
// first read.
func (ns *Namespace) SetComputingScript(sym fsym.Symbol, sourceText string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.defs[sym] = &symbolDef{kind: defComputing, sourceText: sourceText}
	ns.emit("set_computing_script", sym, sourceText)
}

// SetStreamingScript inserts a Streaming definition. Streaming scripts are
// not materialised by this implementation; reading one fails with
// ErrUnavailable, matching the spec's "reserved, full semantics deferred".
func (ns *Namespace) SetStreamingScript(sym fsym.Symbol, sourceText string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.defs[sym] = &symbolDef{kind: defStreaming, sourceText: sourceText}
	ns.emit("set_streaming_script", sym, sourceText)
}

// SetRunIo toggles the run_io flag. Only compilations that happen after this
// call observe the new value; already-materialised ActiveScripts are
// unaffected.
func (ns *Namespace) SetRunIo(v bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.runIO = v
}

// GetOrCreateChild resolves sym to a child Namespace, creating one (and a
// Namespace definition for sym) if sym is undefined. Fails with
// ErrNotANamespace if sym is defined as something else.
func (ns *Namespace) GetOrCreateChild(ctx context.Context, sym fsym.Symbol) (*Namespace, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if def, ok := ns.defs[sym]; ok {
		if def.kind != defNamespace {
			return nil, wrap(ctx, sym, ErrNotANamespace)
		}
		return def.child, nil
	}

	childCmp := ns.cmp
	if name, ok := sym.Name(); ok && ns.cmp != nil {
		childCmp = ns.cmp.Child(name)
	}
	child := New(childCmp, ns.notifier, ns.evalFac, ns.sink)
	ns.defs[sym] = &symbolDef{kind: defNamespace, child: child}
	ns.emit("create_namespace", sym, "")
	return child, nil
}

// GetChild returns the child Namespace for sym, if sym is defined as one.
func (ns *Namespace) GetChild(sym fsym.Symbol) (*Namespace, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	def, ok := ns.defs[sym]
	if !ok || def.kind != defNamespace {
		return nil, false
	}
	return def.child, true
}

// AttachInput attaches stream to sym's InputSource. Fails with
// ErrUndefinedSymbol if sym has no entry, or ErrNotAnInputSymbol if sym
// isn't an Input.
func AttachInput[T any](ctx context.Context, ns *Namespace, sym fsym.Symbol, stream fstream.Upstream[T]) error {
	ns.mu.Lock()
	def, ok := ns.defs[sym]
	ns.mu.Unlock()

	if !ok {
		return wrap(ctx, sym, ErrUndefinedSymbol{Sym: sym})
	}
	if def.kind != defInput {
		return wrap(ctx, sym, ErrNotAnInputSymbol)
	}
	if err := fstream.AttachErased[T](def.source, stream); err != nil {
		return wrap(ctx, sym, err)
	}
	ns.emit("attach_input", sym, "")
	return nil
}

// SnapshotEntry describes one symbol's current definition kind, for
// introspection (see fdebug).
type SnapshotEntry struct {
	Sym  fsym.Symbol
	Kind string
}

func (k defKind) String() string {
	switch k {
	case defInput:
		return "input"
	case defActiveScript:
		return "active_script"
	case defComputing:
		return "computing"
	case defStreaming:
		return "streaming"
	case defScriptError:
		return "script_error"
	case defNamespace:
		return "namespace"
	default:
		return "unknown"
	}
}

// Snapshot returns one SnapshotEntry per symbol currently defined directly
// in ns (not descending into child namespaces), in no particular order.
func (ns *Namespace) Snapshot() []SnapshotEntry {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	out := make([]SnapshotEntry, 0, len(ns.defs))
	for sym, def := range ns.defs {
		out = append(out, SnapshotEntry{Sym: sym, Kind: def.kind.String()})
	}
	return out
}

// logger returns the component-scoped logger for this namespace, or the
// package-default logger if no component tree is wired up.
func (ns *Namespace) logger() *mlog.Logger {
	if ns.cmp == nil {
		return mlog.Null
	}
	return mlog.From(ns.cmp)
}
