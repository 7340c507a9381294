// Package mredis implements connecting to a redis instance.
package mredis

import (
	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mcfg"
	"github.com/mediocregopher/florun/mlog"
	"github.com/mediocregopher/radix/v3"
)

// Redis is a wrapper around a redis client which provides more functionality.
type Redis struct {
	radix.Client
	cmp *mcmp.Component
}

// InstRedis registers the config needed to connect to redis (an "addr" and
// "pool-size" Param on a "redis" child of cmp), to be actually connected by
// Connect once mcfg.Populate has run.
func InstRedis(parent *mcmp.Component) (*mcmp.Component, *string, *int) {
	cmp := parent.Child("redis")

	addr := mcfg.String(cmp, "addr",
		mcfg.ParamDefault("127.0.0.1:6379"),
		mcfg.ParamUsage("Address redis is listening on"))
	poolSize := mcfg.Int(cmp, "pool-size",
		mcfg.ParamDefault(4),
		mcfg.ParamUsage("Number of connections in pool"))

	return cmp, addr, poolSize
}

// Connect dials the redis instance registered via InstRedis. Must be called
// after mcfg.Populate.
func Connect(cmp *mcmp.Component, addr string, poolSize int) (*Redis, error) {
	cmp.Annotate("addr", addr, "poolSize", poolSize)
	mlog.From(cmp).Info("connecting to redis", cmp.Context())

	client, err := radix.NewPool("tcp", addr, poolSize)
	if err != nil {
		return nil, err
	}

	return &Redis{
		Client: client,
		cmp:    cmp,
	}, nil
}

// Close shuts down the underlying redis connection pool.
func (r *Redis) Close() error {
	mlog.From(r.cmp).Info("shutting down redis", r.cmp.Context())
	return r.Client.Close()
}
