//go:build windows

package detect

import (
	"strings"

	"golang.org/x/sys/windows/registry"

	desc "github.com/devkit-labs/devkit/internal/registry"
)

var uninstallRoots = []struct {
	root registry.Key
	path string
}{
	{registry.LOCAL_MACHINE, `Software\Microsoft\Windows\CurrentVersion\Uninstall`},
	{registry.LOCAL_MACHINE, `Software\Wow6432Node\Microsoft\Windows\CurrentVersion\Uninstall`},
	{registry.CURRENT_USER, `Software\Microsoft\Windows\CurrentVersion\Uninstall`},
}

// uninstallProbe matches RegistryName against the DisplayName of entries
// under the Uninstall keys.
type uninstallProbe struct{}

func platformProbe() OSProbe {
	return uninstallProbe{}
}

func (uninstallProbe) Lookup(d desc.ToolDescriptor) (string, string, bool) {
	if d.RegistryName == "" {
		return "", "", false
	}
	want := strings.ToLower(d.RegistryName)

	for _, r := range uninstallRoots {
		key, err := registry.OpenKey(r.root, r.path, registry.READ)
		if err != nil {
			continue
		}
		subKeys, err := key.ReadSubKeyNames(0)
		key.Close()
		if err != nil {
			continue
		}

		for _, sub := range subKeys {
			if path, version, ok := readUninstallEntry(r.root, r.path+`\`+sub, want); ok {
				return path, version, true
			}
		}
	}
	return "", "", false
}

func readUninstallEntry(root registry.Key, path, want string) (string, string, bool) {
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		return "", "", false
	}
	defer k.Close()

	name, _, err := k.GetStringValue("DisplayName")
	if err != nil || !strings.HasPrefix(strings.ToLower(name), want) {
		return "", "", false
	}
	version, _, _ := k.GetStringValue("DisplayVersion")
	location, _, _ := k.GetStringValue("InstallLocation")
	return location, version, true
}
