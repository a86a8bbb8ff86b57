//go:build !linux

package link

import "net"

// drainICMPHints is a no-op outside Linux: MSG_ERRQUEUE PMTU hints are a
// Linux-specific mechanism, and the uTP layer's own PMTU probing is
// sufficient elsewhere.
func drainICMPHints(conn *net.UDPConn) {}
