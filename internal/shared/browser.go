package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// openableSchemes lists URL schemes the opener hands to the operating system.
var openableSchemes = map[string]bool{"http": true, "https": true, "mailto": true}

// ValidateOpenURL parses raw and rejects schemes outside http, https and mailto.
func ValidateOpenURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if !openableSchemes[u.Scheme] {
		return nil, fmt.Errorf("%w: scheme %q not allowed", ErrInvalidArgument, u.Scheme)
	}
	return u, nil
}

// browserCommand returns the platform command that opens url.
func browserCommand(url string) (*exec.Cmd, error) {
	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, the BSDs, and Windows platforms.
func OpenBrowser(raw string) error {
	u, err := ValidateOpenURL(raw)
	if err != nil {
		return err
	}

	cmd, err := browserCommand(u.String())
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	go cmd.Wait()

	return nil
}
