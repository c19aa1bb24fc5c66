package callback

import (
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserLauncher opens URLs in the system browser.
type BrowserLauncher struct {
	goos    string
	command func(name string, args ...string) error
}

func NewBrowserLauncher() *BrowserLauncher {
	return &BrowserLauncher{
		goos: runtime.GOOS,
		command: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

func (b *BrowserLauncher) Open(url string) error {
	var name string
	var args []string

	switch b.goos {
	case "darwin":
		name, args = "open", []string{url}
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		name, args = "xdg-open", []string{url}
	}

	if err := b.command(name, args...); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}
