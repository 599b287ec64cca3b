//go:build darwin

package netutil

import (
	"net"
	"syscall"
)

// applyDSCP sets IP_TOS for QoS marking on Darwin, adapted from the
// teacher's transport_socket_darwin.go setSockOptDSCP. macOS ignores
// IPV6_TCLASS on many UDP sockets, so only IPv4 TOS is attempted.
func applyDSCP(conn *net.UDPConn, dscp int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	tos := dscp << 2
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.IPPROTO_IP, syscall.IP_TOS, tos)
	})
	if err != nil {
		return err
	}
	return sockErr
}
