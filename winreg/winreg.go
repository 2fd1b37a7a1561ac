// Package winreg implements regstore.Store over the Windows registry.
// Locations live under HKEY_CURRENT_USER.
//
// On other platforms Open always fails with ErrUnsupported.
package winreg

import (
	"errors"
	"strings"

	"github.com/kjk/appregistry/regstore"
)

var ErrUnsupported = errors.New("windows registry is not available on this platform")

// Store is a regstore.Store over HKEY_CURRENT_USER
type Store struct{}

var _ regstore.Store = Store{}

// KeyPath converts location path "Software/Consto/Tests" to
// registry key path `Software\Consto\Tests`
func KeyPath(path string) string {
	path = strings.Trim(path, "/")
	return strings.ReplaceAll(path, "/", `\`)
}
