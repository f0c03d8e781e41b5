package utils

import (
	"net"
	"strings"
)

// LocalIPv4s returns the non-loopback IPv4 addresses UI shells can reach
// the agent on. Link-local (169.254.x.x) addresses are dropped whenever a
// routable alternative exists.
func LocalIPv4s() []string {
	var allIPs []string
	var hasRoutableIP bool

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return allIPs
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				ip := ipnet.IP.String()
				allIPs = append(allIPs, ip)
				if !strings.HasPrefix(ip, "169.254") {
					hasRoutableIP = true
				}
			}
		}
	}

	var finalIPs []string
	for _, ip := range allIPs {
		if hasRoutableIP && strings.HasPrefix(ip, "169.254") {
			continue
		}
		finalIPs = append(finalIPs, ip)
	}

	return finalIPs
}
