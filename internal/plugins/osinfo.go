package plugins

import (
	"context"
	"encoding/json"
	"os"
	"runtime"
	"strings"

	"github.com/desertthunder/deskhost/internal/host"
)

// Info describes the machine the host runs on.
type Info struct {
	Platform string  `json:"platform"`
	Arch     string  `json:"arch"`
	Family   string  `json:"family"`
	Hostname string  `json:"hostname"`
	Locale   *string `json:"locale"`
}

// OSInfo answers os_info.
type OSInfo struct {
	goos, goarch string
	hostname     func() (string, error)
	getenv       func(string) string
}

// NewOSInfo reports on the running process.
func NewOSInfo() *OSInfo {
	return &OSInfo{goos: runtime.GOOS, goarch: runtime.GOARCH, hostname: os.Hostname, getenv: os.Getenv}
}

func (o *OSInfo) Name() string { return "os" }

func (o *OSInfo) Setup(app *host.App) error {
	return app.Register("os_info", func(ctx context.Context, app *host.App, _ json.RawMessage) (any, error) {
		return o.Info(), nil
	})
}

// Info collects the current values. An unknown hostname is reported as empty.
func (o *OSInfo) Info() Info {
	hostname, _ := o.hostname()
	return Info{
		Platform: platformName(o.goos),
		Arch:     archName(o.goarch),
		Family:   familyName(o.goos),
		Hostname: hostname,
		Locale:   o.locale(),
	}
}

// locale reads the POSIX locale variables in precedence order and returns a BCP 47 tag.
func (o *OSInfo) locale() *string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if tag := bcp47(o.getenv(key)); tag != "" {
			return &tag
		}
	}
	return nil
}

// bcp47 turns "en_US.UTF-8" into "en-US". C and POSIX have no tag.
func bcp47(posix string) string {
	posix, _, _ = strings.Cut(posix, ".")
	posix, _, _ = strings.Cut(posix, "@")
	if posix == "" || posix == "C" || posix == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(posix, "_", "-")
}

func platformName(goos string) string {
	if goos == "darwin" {
		return "macos"
	}
	return goos
}

func archName(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "x86"
	}
	return goarch
}

func familyName(goos string) string {
	if goos == "windows" {
		return "windows"
	}
	return "unix"
}
