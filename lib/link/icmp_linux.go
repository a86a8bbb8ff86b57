//go:build linux

package link

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// drainICMPHints reads queued ICMP "fragmentation needed"/"packet too big"
// notifications off conn's error queue (MSG_ERRQUEUE) and logs the MTU
// each one reports. The hints are not passed to the uTP engine or to any
// session. Sockets not wired for IP_RECVERR
// simply never have anything queued here; this is a best-effort hint, not a
// correctness requirement, so any error reading the queue is ignored.
func drainICMPHints(conn *net.UDPConn) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return
	}

	var hints []icmpHint
	_ = raw.Read(func(fd uintptr) bool {
		for {
			buf := make([]byte, 1500)
			oob := make([]byte, 512)
			n, oobn, _, from, err := unix.Recvmsg(int(fd), buf, oob, unix.MSG_ERRQUEUE|unix.MSG_DONTWAIT)
			if err != nil {
				return true
			}
			hint, ok := parseICMPErrqueue(oob[:oobn], from)
			if ok {
				hint.datagram = buf[:n]
				hints = append(hints, hint)
			}
		}
	})

	for _, h := range hints {
		log.Debugf("icmp pmtu hint from %v mtu=%d", h.addr, h.mtu)
	}
}

type icmpHint struct {
	addr     net.Addr
	mtu      int
	datagram []byte
}

// parseICMPErrqueue extracts the MTU value carried in a
// sock_extended_err/IP_RECVERR control message, if present.
func parseICMPErrqueue(oob []byte, from unix.Sockaddr) (icmpHint, bool) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return icmpHint{}, false
	}
	for _, m := range msgs {
		if m.Header.Level != unix.SOL_IP || m.Header.Type != unix.IP_RECVERR {
			continue
		}
		ee, ok := parseExtendedErr(m.Data)
		if !ok {
			continue
		}
		if ee.eeErrno != uint32(syscall.EMSGSIZE) {
			continue
		}
		addr := sockaddrToUDPAddr(from)
		return icmpHint{addr: addr, mtu: int(ee.eeInfo)}, true
	}
	return icmpHint{}, false
}

// sockExtendedErr mirrors struct sock_extended_err from linux/errqueue.h;
// ee_info carries the discovered MTU for EMSGSIZE notifications.
type sockExtendedErr struct {
	eeErrno  uint32
	eeOrigin uint8
	eeType   uint8
	eeCode   uint8
	eePad    uint8
	eeInfo   uint32
	eeData   uint32
}

func parseExtendedErr(data []byte) (sockExtendedErr, bool) {
	if len(data) < 16 {
		return sockExtendedErr{}, false
	}
	var ee sockExtendedErr
	ee.eeErrno = hostUint32(data[0:4])
	ee.eeOrigin = data[4]
	ee.eeType = data[5]
	ee.eeCode = data[6]
	ee.eePad = data[7]
	ee.eeInfo = hostUint32(data[8:12])
	ee.eeData = hostUint32(data[12:16])
	return ee, true
}

func hostUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func sockaddrToUDPAddr(sa unix.Sockaddr) net.Addr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.UDPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}
	case *unix.SockaddrInet6:
		return &net.UDPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}
	default:
		return nil
	}
}
