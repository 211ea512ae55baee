package hypervisor

import (
	"os"
	"runtime"
	"strings"
)

// virtualboxPackages maps a host OS family to the package providing VBoxManage.
var virtualboxPackages = map[string]string{
	"arch":      "virtualbox",
	"manjaro":   "virtualbox",
	"ubuntu":    "virtualbox",
	"debian":    "virtualbox",
	"linuxmint": "virtualbox",
	"pop":       "virtualbox",
	"fedora":    "VirtualBox",
	"rhel":      "VirtualBox",
	"centos":    "VirtualBox",
	"rocky":     "VirtualBox",
	"opensuse":  "virtualbox",
	"suse":      "virtualbox",
	"macos":     "virtualbox",
}

// InstallHints returns human-readable instructions for installing
// VirtualBox on the current host.
func InstallHints() []string {
	return installHints(detectHostOS(readOSRelease()))
}

func installHints(host string) []string {
	hint := "Download VirtualBox from https://www.virtualbox.org/wiki/Downloads"
	pkg, ok := virtualboxPackages[host]
	if !ok {
		return []string{hint}
	}

	var cmd string
	switch host {
	case "arch", "manjaro":
		cmd = "sudo pacman -S " + pkg
	case "ubuntu", "debian", "linuxmint", "pop":
		cmd = "sudo apt-get install " + pkg
	case "fedora":
		cmd = "sudo dnf install " + pkg
	case "rhel", "centos", "rocky":
		cmd = "sudo yum install " + pkg
	case "opensuse", "suse":
		cmd = "sudo zypper install " + pkg
	case "macos":
		cmd = "brew install --cask " + pkg
	}
	return []string{"Install VirtualBox: " + cmd, "or: " + hint}
}

func readOSRelease() string {
	if runtime.GOOS != "linux" {
		return ""
	}
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	return string(data)
}

// detectHostOS returns the host OS family from /etc/os-release contents.
func detectHostOS(osRelease string) string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	case "windows":
		return "windows"
	}

	lines := strings.Split(osRelease, "\n")
	for _, line := range lines {
		if id, ok := strings.CutPrefix(line, "ID="); ok {
			return strings.Trim(id, "\"")
		}
	}
	for _, line := range lines {
		if like, ok := strings.CutPrefix(line, "ID_LIKE="); ok {
			like = strings.Trim(like, "\"")
			switch {
			case strings.Contains(like, "arch"):
				return "arch"
			case strings.Contains(like, "debian"), strings.Contains(like, "ubuntu"):
				return "debian"
			case strings.Contains(like, "fedora"), strings.Contains(like, "rhel"):
				return "fedora"
			}
		}
	}
	return "linux"
}
