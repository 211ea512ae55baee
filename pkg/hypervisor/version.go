package hypervisor

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/javanstorm/substance/pkg/result"
)

// Version is a major.minor.patch triple.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) components() [3]int {
	return [3]int{v.Major, v.Minor, v.Patch}
}

// MinimumVersion is the oldest VirtualBox release the driver accepts.
var MinimumVersion = Version{Major: 5, Minor: 0, Patch: 10}

// ParseVersion extracts the dotted version from raw `--version` output,
// dropping the `_<build>` and `r<revision>` suffixes VBoxManage appends.
func ParseVersion(raw string) result.Result[string] {
	v := strings.TrimSpace(raw)
	if v == "" {
		return result.Fail[string](invalidVersion(raw))
	}
	parts := strings.Split(v, "_")
	if len(parts) == 0 {
		return result.Fail[string](invalidVersion(raw))
	}
	return result.Ok(strings.Split(parts[0], "r")[0])
}

// CheckVersion accepts version when each of its first three components is at
// least the matching component of min. Components are compared independently:
// 6.0.0 fails against 5.0.10 because its patch is lower.
func CheckVersion(version string, min Version) result.Result[string] {
	parts := strings.Split(version, ".")
	if len(parts) < 3 {
		return result.Fail[string](invalidVersion(version))
	}

	want := min.components()
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return result.Fail[string](invalidVersion(version))
		}
		if n < want[i] {
			return result.Fail[string](&ToolVersionError{
				Message: fmt.Sprintf("VirtualBox version %s and up is required. %s currently installed.", min, version),
			})
		}
	}
	return result.Ok(version)
}

// OrdersAtLeast reports whether version sorts at or above min in semantic
// version order. Unparseable versions report false.
func OrdersAtLeast(version string, min Version) bool {
	v := "v" + version
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(v, "v"+min.String()) >= 0
}

func invalidVersion(raw string) *ToolVersionError {
	return &ToolVersionError{Message: fmt.Sprintf("Invalid version of VirtualBox installed : %s", raw)}
}
