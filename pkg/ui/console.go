package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/igorvan/omniscan/pkg/camera"
	"github.com/igorvan/omniscan/pkg/scanning"
)

// Console - terminal view, the bell stands in for the success tone
type Console struct {
	mtx sync.Mutex
	out io.Writer
	in  *bufio.Reader
}

// NewConsole - Console constructor, in may be nil when no prompts are needed
func NewConsole(out io.Writer, in io.Reader) *Console {
	c := &Console{out: out}
	if in != nil {
		c.in = bufio.NewReader(in)
	}
	return c
}

func (c *Console) SetStatus(report camera.StatusReport) {
	c.printf("[%s] %s\n", report.State, report.Message)
}

func (c *Console) SetDevices(devices []camera.Device, selectedID string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if len(devices) == 0 {
		fmt.Fprintln(c.out, "No cameras detected")
		return
	}
	for _, d := range devices {
		marker := " "
		if d.ID == selectedID {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %s (%s)\n", marker, d.Label, d.ID)
	}
}

func (c *Console) RenderEntries(entries []scanning.Entry) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	fmt.Fprintf(c.out, "%d scanned\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(c.out, "  %s  %s %s\n", e.Value, e.Timestamp, e.Format)
	}
}

func (c *Console) Alert(message string) {
	c.printf("! %s\n", message)
}

// Beep - rings the terminal bell
func (c *Console) Beep() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	_, err := io.WriteString(c.out, "\a")
	return err
}

// Vibrate - terminals have no haptics
func (c *Console) Vibrate(time.Duration) bool {
	return false
}

func (c *Console) Highlight(bool) {}

func (c *Console) ShowToast(value string) {
	c.printf("Scanned: %s\n", value)
}

func (c *Console) HideToast() {}

// Confirm - asks a y/N question on the console input, anything but yes declines
func (c *Console) Confirm(message string) bool {
	c.printf("%s [y/N]: ", message)
	if c.in == nil {
		return false
	}
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (c *Console) printf(format string, args ...any) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	fmt.Fprintf(c.out, format, args...)
}
