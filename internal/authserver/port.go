package authserver

import (
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/deskhost/internal/shared"
)

// loopbackHost is the only interface the callback server binds.
const loopbackHost = "127.0.0.1"

// FindAvailablePort asks the OS for a free TCP port on the loopback interface and releases it.
//
// The port is rebound by the callback server right after. Another process could take it in between; on
// loopback that window is small enough to accept.
func FindAvailablePort() (int, error) {
	ln, err := net.Listen("tcp4", net.JoinHostPort(loopbackHost, "0"))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrPortAllocation, err)
	}
	defer ln.Close()

	return ln.Addr().(*net.TCPAddr).Port, nil
}

// listenLoopback binds port on the loopback interface.
func listenLoopback(port int) (net.Listener, error) {
	ln, err := net.Listen("tcp4", net.JoinHostPort(loopbackHost, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPortAllocation, err)
	}
	return ln, nil
}

// CallbackURL is the redirect URI handed to the frontend for port.
func CallbackURL(port int) string {
	return fmt.Sprintf("http://localhost:%d%s", port, CallbackPath)
}
