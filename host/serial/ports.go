package serial

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// VendorCH341 is the USB vendor id of the CH341 bridge used on Nano boards
const VendorCH341 = "1A86"

// PortInfo describes an available serial device
type PortInfo struct {
	Name    string
	IsUSB   bool
	VID     string
	PID     string
	Product string
}

// ListPorts returns the available serial devices sorted by name.
// When the OS enumerator reports nothing, well known device paths are globbed.
func ListPorts() []PortInfo {
	if ports, err := enumerator.GetDetailedPortsList(); err == nil && len(ports) > 0 {
		out := make([]PortInfo, 0, len(ports))
		seen := make(map[string]struct{}, len(ports))
		for _, p := range ports {
			if p == nil || p.Name == "" {
				continue
			}
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			out = append(out, PortInfo{
				Name:    p.Name,
				IsUSB:   p.IsUSB,
				VID:     strings.ToUpper(p.VID),
				PID:     strings.ToUpper(p.PID),
				Product: p.Product,
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out
	}

	var names []string
	switch runtime.GOOS {
	case "windows":
		return nil
	case "darwin":
		names = listByGlob("/dev/cu.*")
	default:
		names = listByGlob("/dev/ttyUSB*", "/dev/ttyACM*")
	}
	out := make([]PortInfo, 0, len(names))
	for _, n := range names {
		out = append(out, PortInfo{Name: n})
	}
	return out
}

// FindController picks the device most likely to be a Nano board:
// the first CH341 bridge, else the first USB device.
func FindController(ports []PortInfo) (string, bool) {
	for _, p := range ports {
		if p.IsUSB && p.VID == VendorCH341 {
			return p.Name, true
		}
	}
	for _, p := range ports {
		if p.IsUSB {
			return p.Name, true
		}
	}
	return "", false
}

// listByGlob expands glob patterns into a sorted, de-duplicated list
func listByGlob(patterns ...string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 16)
	for _, pat := range patterns {
		matches, _ := filepath.Glob(pat)
		for _, m := range matches {
			if _, err := os.Stat(m); err != nil {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
