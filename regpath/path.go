// Package regpath derives hierarchical store locations for settings types.
//
// A location is Root/<organization>/<application>/<type name>, e.g.
//
//	Software/Consto/Tests/Settings
package regpath

import "strings"

const (
	// Root is the first segment of every location
	Root = "Software"
	// Separator separates segments of a location
	Separator = "/"
)

// Path returns location of settings of type typeName stored by application
// of organization. Segments are not escaped.
func Path(organization, application, typeName string) string {
	return Root + Separator + organization + Separator + application + Separator + typeName
}

// Join joins segments with Separator
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Split is the inverse of Join
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}
