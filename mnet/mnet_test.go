package mnet

import (
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/mediocregopher/florun/mtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReservedIP(t *testing.T) {
	assertReserved := func(ipStr string) {
		ip := net.ParseIP(ipStr)
		require.NotNil(t, ip, "ip %q not valid", ipStr)
		assert.True(t, IsReservedIP(ip), "ip %q should be reserved", ipStr)
	}
	assertNotReserved := func(ipStr string) {
		ip := net.ParseIP(ipStr)
		require.NotNil(t, ip, "ip %q not valid", ipStr)
		assert.False(t, IsReservedIP(ip), "ip %q should not be reserved", ipStr)
	}

	assertReserved("127.0.0.1")
	assertReserved("::ffff:127.0.0.1")
	assertReserved("192.168.40.50")
	assertReserved("::1")
	assertReserved("100::1")

	assertNotReserved("8.8.8.8")
	assertNotReserved("::ffff:8.8.8.8")
	assertNotReserved("2600:1700:7580:6e80:21c:25ff:fe97:44df")
}

func TestListen(t *testing.T) {
	cmp := mtest.Component()
	netCmp, addr := InstListener(cmp, ListenerDefaultAddr("127.0.0.1:0"))

	mtest.Run(cmp, t, func() {
		l, err := Listen(netCmp, *addr)
		require.NoError(t, err)
		defer l.Close()

		go func() {
			conn, err := net.Dial("tcp", l.Listener.Addr().String())
			if err != nil {
				return
			}
			fmt.Fprint(conn, "hello world")
			conn.Close()
		}()

		conn, err := l.Accept()
		require.NoError(t, err)
		b, err := io.ReadAll(conn)
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(b))
	})
}
