// Package mhttp extends the standard net/http package with extra
// functionality which is commonly useful.
package mhttp

import (
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mlog"
	"github.com/mediocregopher/florun/mnet"
)

// Server wraps an http.Server together with the mnet.Listener it serves on.
type Server struct {
	*http.Server
	Listener *mnet.Listener
}

// InstServer registers config for an HTTP server (via mnet.InstListener: a
// "net" child of cmp, with a "listen-addr" Param), to be actually opened by
// Serve once Populate has run.
func InstServer(cmp *mcmp.Component) (*mcmp.Component, *string) {
	return mnet.InstListener(cmp, mnet.ListenerDefaultAddr(":0"))
}

// Serve opens the listener registered via InstServer at addr and starts h
// serving on it in a new goroutine. Must be called after mcfg.Populate.
func Serve(netCmp *mcmp.Component, addr string, h http.Handler) (*Server, error) {
	l, err := mnet.Listen(netCmp, addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{Handler: h}
	go func() {
		if err := srv.Serve(l.Listener); err != nil && err != http.ErrServerClosed {
			mlog.From(netCmp).Error("http server stopped")
		}
	}()

	return &Server{Server: srv, Listener: l}, nil
}

// Close stops accepting new connections and closes the underlying listener.
func (s *Server) Close() error {
	return s.Server.Close()
}

// AddXForwardedFor populates the X-Forwarded-For header on the Request to
// convey that the request is being proxied for IP.
//
// If the IP is invalid, loopback, or otherwise part of a reserved range,
// this does nothing.
func AddXForwardedFor(r *http.Request, ipStr string) {
	const xff = "X-Forwarded-For"
	ip := net.ParseIP(ipStr)
	if ip == nil || mnet.IsReservedIP(ip) { // IsReservedIP includes loopback
		return
	}
	prev := r.Header[xff]
	r.Header.Set(xff, strings.Join(append(prev, ip.String()), ", "))
}

// ReverseProxy returns an httputil.ReverseProxy which sends requests to the
// given URL and copies their responses back without modification.
//
// Only the Scheme and Host of the given URL are used.
func ReverseProxy(u *url.URL) *httputil.ReverseProxy {
	rp := new(httputil.ReverseProxy)
	rp.Director = func(req *http.Request) {
		if ipStr, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
			AddXForwardedFor(req, ipStr)
		}
		req.URL.Scheme = u.Scheme
		req.URL.Host = u.Host
	}
	return rp
}
