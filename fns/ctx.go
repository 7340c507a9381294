package fns

import (
	"context"

	"github.com/mediocregopher/florun/fsym"
	"github.com/mediocregopher/florun/mctx"
)

func annotateSymbol(ctx context.Context, sym fsym.Symbol) context.Context {
	if name, ok := sym.Name(); ok {
		return mctx.Annotate(ctx, "symbol", name)
	}
	return mctx.Annotate(ctx, "symbol", sym.String())
}
