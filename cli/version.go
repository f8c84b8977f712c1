package cli

import "runtime/debug"

// version can be set by the linker.
var version string

// Version returns the linker-set version, else the module version from the
// build information, else "unknown".  Binaries not built by "go install
// PACKAGE@VERSION" report "(devel)".
func Version() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "unknown"
}
