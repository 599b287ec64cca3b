//go:build windows

package netutil

import (
	"net"
	"syscall"
)

// applyDSCP sets IP_TOS for QoS marking on Windows, adapted from the
// teacher's transport_socket_windows.go setSockOptDSCP. Windows often
// requires administrative privileges for non-default TOS values, so a
// failure here is swallowed rather than surfaced — matching the
// teacher's "ignore and continue" stance for this platform.
func applyDSCP(conn *net.UDPConn, dscp int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	tos := dscp << 2
	_ = raw.Control(func(fd uintptr) {
		_ = syscall.SetsockoptInt(syscall.Handle(fd), syscall.IPPROTO_IP, syscall.IP_TOS, tos)
	})
	return nil
}
