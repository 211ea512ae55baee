package hypervisor

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/javanstorm/substance/pkg/shell"
)

// DriverVirtualBox is the name of the VBoxManage driver.
const DriverVirtualBox = "virtualbox"

// SupportedDrivers lists the driver names accepted by NewDriver.
func SupportedDrivers() []string {
	return []string{DriverVirtualBox}
}

// ValidDriver reports whether name selects a supported driver.
func ValidDriver(name string) bool {
	for _, d := range SupportedDrivers() {
		if strings.EqualFold(name, d) {
			return true
		}
	}
	return false
}

// NewDriver creates the driver named name.
func NewDriver(name string, runner shell.Runner, log zerolog.Logger) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DriverVirtualBox, "":
		return NewVirtualBox(runner, WithLogger(log)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, name)
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
