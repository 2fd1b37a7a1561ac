//go:build !windows

package winreg

import (
	"fmt"

	"github.com/kjk/appregistry/regstore"
)

func (Store) Open(path string, writable bool) (regstore.Key, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
}
