// notebookd is a small demo binary exercising the full reactive notebook
// stack: a Host serving Notebook/Editor handles over one root namespace, a
// Redis-backed Input, and a debug HTTP server.
//
// It defines one Input symbol ("redisIn", a float64) and one Computing
// symbol ("doubled", an feval expression depending on it) so that GET
// /namespace/ and GET /updates/ have something to show. By default redisIn
// is fed via BLPOP against a plain Redis list; if --redis-group is set it's
// instead fed via XREADGROUP against a Redis stream consumer group, which
// acknowledges each entry only once it has been handed on to the Input.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/mediocregopher/florun/fdebug"
	"github.com/mediocregopher/florun/fedit"
	"github.com/mediocregopher/florun/feval"
	"github.com/mediocregopher/florun/fhost"
	"github.com/mediocregopher/florun/fns"
	"github.com/mediocregopher/florun/fredis"
	"github.com/mediocregopher/florun/fstream"
	"github.com/mediocregopher/florun/fsym"
	"github.com/mediocregopher/florun/mcfg"
	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mctx"
	"github.com/mediocregopher/florun/mdb/mredis"
	"github.com/mediocregopher/florun/mlog"
)

func fatalOn(cmp *mcmp.Component, msg string, err error) {
	if err == nil {
		return
	}
	mlog.From(cmp).Fatal(msg, mctx.Annotate(cmp.Context(), "err", err.Error()))
	os.Exit(1)
}

func main() {
	cmp := new(mcmp.Component)
	logger := mlog.NewLogger(os.Stdout)
	mlog.SetLogger(cmp, logger)

	debugCmp, debugAddr := fdebug.InstServer(cmp)
	redisCmp, redisAddr, redisPoolSize := mredis.InstRedis(cmp)
	redisKey := mcfg.String(redisCmp, "in-key",
		mcfg.ParamDefault("notebookd-in"),
		mcfg.ParamUsage("Redis list or stream key the \"redisIn\" Input is fed from"))
	redisGroup := mcfg.String(redisCmp, "group",
		mcfg.ParamUsage("If set, \"redisIn\" is fed via XREADGROUP against this consumer group on in-key, instead of BLPOP against it as a plain list"))
	runIo := mcfg.Bool(cmp, "run-io",
		mcfg.ParamUsage("Whether side-effecting script expressions are permitted"))

	src := mcfg.Sources{new(mcfg.SourceEnv), new(mcfg.SourceCLI)}
	fatalOn(cmp, "populating config", mcfg.Populate(cmp, src))

	redis, err := mredis.Connect(redisCmp, *redisAddr, *redisPoolSize)
	fatalOn(cmp, "connecting to redis", err)
	defer redis.Close()

	reg := fns.NewInputFactoryRegistry()
	fns.RegisterInputFactory[float64](reg)

	h := fhost.New(cmp, feval.NewFactory(), reg)
	defer h.Close()

	nb := h.Notebook()
	nb.SetRunIo(*runIo)

	redisIn := fsym.WithName("redisIn")
	doubled := fsym.WithName("doubled")

	ed := h.Editor()
	ch := make(chan fedit.Edit, 2)
	ch <- fedit.Edit{Kind: fedit.SetInputType, Sym: redisIn, InputType: fstream.TagOf[float64]()}
	ch <- fedit.Edit{Kind: fedit.SetComputingScript, Sym: doubled, Text: "redisIn * 2"}
	close(ch)
	ed.SendEdits(context.Background(), fedit.FromChannel(ch))
	fatalOn(cmp, "defining demo symbols", ed.Wait(nil))

	var upstream fstream.Upstream[float64]
	if *redisGroup != "" {
		upstream = fredis.NewStreamUpstream[float64](redisCmp, redis, mredis.StreamOpts{
			Key:      *redisKey,
			Group:    *redisGroup,
			Consumer: "notebookd",
		})
	} else {
		upstream = fredis.NewUpstream[float64](redisCmp, redis, *redisKey, fredis.Opts{})
	}
	fatalOn(cmp, "attaching redis input", fhost.AttachInput[float64](context.Background(), nb, redisIn, upstream))

	debugSrv, err := fdebug.Serve(debugCmp, *debugAddr, nb)
	fatalOn(cmp, "starting debug server", err)
	defer debugSrv.Close()

	mlog.From(cmp).Info("notebookd up", cmp.Context())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh

	mlog.From(cmp).Info("shutting down")
}
