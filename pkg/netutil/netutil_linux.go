//go:build linux

package netutil

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// applyDSCP sets IP_TOS/IPV6_TCLASS for QoS marking on Linux, adapted
// from the teacher's transport_socket_linux.go setSockOptDSCP.
func applyDSCP(conn *net.UDPConn, dscp int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	tos := dscp << 2
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		if e := syscall.SetsockoptInt(int(fd), syscall.IPPROTO_IP, syscall.IP_TOS, tos); e != nil {
			sockErr = e
			return
		}
		// IPv6 traffic class, best-effort: some sockets are IPv4-only.
		_ = syscall.SetsockoptInt(int(fd), syscall.IPPROTO_IPV6, unix.IPV6_TCLASS, tos)
	})
	if err != nil {
		return err
	}
	return sockErr
}
