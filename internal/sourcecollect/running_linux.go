package sourcecollect

import (
	"net"

	"golang.org/x/sys/unix"
)

// interfaceRunning asks the kernel for IFF_RUNNING, a carrier-detected
// state net.Interface.Flags does not expose: an interface can be
// administratively up (net.FlagUp) while carrying no link, in which
// case its configured addresses are not usable sources.
func interfaceRunning(intf net.Interface) bool {
	raw, err := unix.NewIfreq(intf.Name)
	if err != nil {
		return true
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return true
	}
	defer unix.Close(fd)
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, raw); err != nil {
		return true
	}
	flags, _ := raw.Uint16()
	return flags&unix.IFF_RUNNING != 0
}
