// Package mnet extends the standard net package with extra functionality
// which is commonly useful.
package mnet

import (
	"net"
	"strings"

	"github.com/mediocregopher/florun/mcfg"
	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mctx"
	"github.com/mediocregopher/florun/merr"
	"github.com/mediocregopher/florun/mlog"
)

// Listener wraps a net.Listener (or net.PacketConn, for packet-oriented
// protocols), adding debug logging.
type Listener struct {
	net.Listener
	net.PacketConn

	cmp *mcmp.Component
}

type listenerOpts struct {
	proto       string
	defaultAddr string
}

func (lOpts listenerOpts) isPacketConn() bool {
	proto := strings.ToLower(lOpts.proto)
	return strings.HasPrefix(proto, "udp") ||
		proto == "unixgram" ||
		strings.HasPrefix(proto, "ip")
}

// ListenerOpt adjusts the behavior of Listen.
type ListenerOpt func(*listenerOpts)

// ListenerProtocol adjusts the protocol Listen uses. Defaults to "tcp".
func ListenerProtocol(proto string) ListenerOpt {
	return func(opts *listenerOpts) { opts.proto = proto }
}

// ListenerDefaultAddr adjusts the default listen address. Still
// configurable via mcfg regardless of what this is set to. Defaults to
// ":0".
func ListenerDefaultAddr(defaultAddr string) ListenerOpt {
	return func(opts *listenerOpts) { opts.defaultAddr = defaultAddr }
}

// InstListener registers a "listen-addr" Param on a "net" child of cmp, to
// be read once Populate runs; the listener itself isn't opened until
// Listen is called with the same Component.
func InstListener(cmp *mcmp.Component, opts ...ListenerOpt) (*mcmp.Component, *string) {
	lOpts := listenerOpts{proto: "tcp", defaultAddr: ":0"}
	for _, opt := range opts {
		opt(&lOpts)
	}

	cmp = cmp.Child("net")
	addr := mcfg.String(cmp, "listen-addr",
		mcfg.ParamDefault(lOpts.defaultAddr),
		mcfg.ParamUsage(
			strings.ToUpper(lOpts.proto)+" address to listen on in format "+
				"[host]:port. If port is 0 then a random one will be chosen",
		),
	)
	cmp.SetValue(listenerProtoKey{}, lOpts.proto)
	return cmp, addr
}

type listenerProtoKey struct{}

// Listen opens the Listener registered on cmp (via InstListener) at its
// now-populated address. Must be called after mcfg.Populate.
func Listen(cmp *mcmp.Component, addr string) (*Listener, error) {
	proto, _ := cmp.Value(listenerProtoKey{}).(string)
	if proto == "" {
		proto = "tcp"
	}

	l := &Listener{cmp: cmp}
	var err error
	if (listenerOpts{proto: proto}).isPacketConn() {
		l.PacketConn, err = net.ListenPacket(proto, addr)
	} else {
		l.Listener, err = net.Listen(proto, addr)
	}
	if err != nil {
		return nil, merr.Wrap(cmp.Context(), err)
	}

	if l.Listener != nil {
		cmp.Annotate("addr", l.Listener.Addr().String())
	} else {
		cmp.Annotate("addr", l.PacketConn.LocalAddr().String())
	}
	mlog.From(cmp).Info("listening")
	return l, nil
}

// Accept wraps Accept on the underlying net.Listener, adding debug logging.
func (l *Listener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return conn, err
	}
	mlog.From(l.cmp).Debug("connection accepted",
		mctx.Annotate(l.cmp.Context(), "remoteAddr", conn.RemoteAddr().String()))
	return conn, nil
}

// Close wraps Close on the underlying net.Listener or net.PacketConn,
// adding debug logging.
func (l *Listener) Close() error {
	mlog.From(l.cmp).Info("listener closing")
	if l.Listener != nil {
		return l.Listener.Close()
	}
	return l.PacketConn.Close()
}

////////////////////////////////////////////////////////////////////////////

func mustGetCIDRNetwork(cidr string) *net.IPNet {
	_, n, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	return n
}

// https://en.wikipedia.org/wiki/Reserved_IP_addresses

var reservedCIDRs4 = []*net.IPNet{
	mustGetCIDRNetwork("0.0.0.0/8"),          // current network
	mustGetCIDRNetwork("10.0.0.0/8"),         // private network
	mustGetCIDRNetwork("100.64.0.0/10"),      // private network
	mustGetCIDRNetwork("127.0.0.0/8"),        // localhost
	mustGetCIDRNetwork("169.254.0.0/16"),     // link-local
	mustGetCIDRNetwork("172.16.0.0/12"),      // private network
	mustGetCIDRNetwork("192.0.0.0/24"),       // IETF protocol assignments
	mustGetCIDRNetwork("192.0.2.0/24"),       // documentation and examples
	mustGetCIDRNetwork("192.88.99.0/24"),     // 6to4 Relay
	mustGetCIDRNetwork("192.168.0.0/16"),     // private network
	mustGetCIDRNetwork("198.18.0.0/15"),      // private network
	mustGetCIDRNetwork("198.51.100.0/24"),    // documentation and examples
	mustGetCIDRNetwork("203.0.113.0/24"),     // documentation and examples
	mustGetCIDRNetwork("224.0.0.0/4"),        // IP multicast
	mustGetCIDRNetwork("240.0.0.0/4"),        // reserved
	mustGetCIDRNetwork("255.255.255.255/32"), // limited broadcast address
}

var reservedCIDRs6 = []*net.IPNet{
	mustGetCIDRNetwork("::/128"),        // unspecified address
	mustGetCIDRNetwork("::1/128"),       // loopback address
	mustGetCIDRNetwork("100::/64"),      // discard prefix
	mustGetCIDRNetwork("2001::/32"),     // Teredo tunneling
	mustGetCIDRNetwork("2001:20::/28"),  // ORCHID v2
	mustGetCIDRNetwork("2001:db8::/32"), // documentation and examples
	mustGetCIDRNetwork("2002::/16"),     // 6to4 addressing
	mustGetCIDRNetwork("fc00::/7"),      // unique local
	mustGetCIDRNetwork("fe80::/10"),     // link local
	mustGetCIDRNetwork("ff00::/8"),      // multicast
}

// IsReservedIP returns true if the given valid IP is part of a reserved IP
// range.
func IsReservedIP(ip net.IP) bool {
	containedBy := func(cidrs []*net.IPNet) bool {
		for _, cidr := range cidrs {
			if cidr.Contains(ip) {
				return true
			}
		}
		return false
	}

	if ip.To4() != nil {
		return containedBy(reservedCIDRs4)
	}
	return containedBy(reservedCIDRs6)
}
