package alloc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// ErrSubnetExhausted is returned when every usable host address of the
// subnet is already assigned.
var ErrSubnetExhausted = errors.New("subnet has no available addresses")

// NextFreeAddress scans the usable host range of subnet in ascending numeric
// order and returns the first address not present in assigned. The network
// address, the broadcast address and the server's own first host address are
// never handed out. The scan is deterministic: the same assigned set always
// yields the same address.
func NextFreeAddress(subnet string, assigned map[string]bool) (string, error) {
	ip, ipnet, err := net.ParseCIDR(subnet)
	if err != nil {
		return "", fmt.Errorf("invalid subnet %q: %w", subnet, err)
	}
	v4 := ip.Mask(ipnet.Mask).To4()
	if v4 == nil {
		return "", fmt.Errorf("subnet %q is not IPv4", subnet)
	}
	ones, bits := ipnet.Mask.Size()
	if bits-ones < 2 {
		return "", fmt.Errorf("subnet %q has no host range", subnet)
	}

	network := binary.BigEndian.Uint32(v4)
	broadcast := network | (1<<uint(bits-ones) - 1)

	// network+1 is the server's own address, peers start at network+2.
	for n := network + 2; n < broadcast; n++ {
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], n)
		candidate := net.IP(buf[:]).String()
		if !assigned[candidate] {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrSubnetExhausted, subnet)
}

// Contains reports whether addr is a usable peer address within subnet:
// inside the host range and not the network, broadcast or server address.
func Contains(subnet, addr string) (bool, error) {
	ip, ipnet, err := net.ParseCIDR(subnet)
	if err != nil {
		return false, fmt.Errorf("invalid subnet %q: %w", subnet, err)
	}
	candidate := net.ParseIP(addr)
	if candidate == nil || candidate.To4() == nil {
		return false, fmt.Errorf("invalid address %q", addr)
	}
	if !ipnet.Contains(candidate) {
		return false, nil
	}

	v4 := ip.Mask(ipnet.Mask).To4()
	ones, bits := ipnet.Mask.Size()
	network := binary.BigEndian.Uint32(v4)
	broadcast := network | (1<<uint(bits-ones) - 1)
	n := binary.BigEndian.Uint32(candidate.To4())

	return n > network+1 && n < broadcast, nil
}
