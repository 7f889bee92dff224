// Package paths resolves the directories docvalidate reads its configuration
// from.
//
// # XDG Base Directory Compliance
//
// The package wraps github.com/adrg/xdg for cross-platform XDG Base Directory
// Specification compliance. On Linux, the user config file lives at
// ~/.config/docvalidate/docvalidate.yaml.
package paths
