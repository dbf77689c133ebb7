// Package component discovers decorated UI component classes in TypeScript
// sources and keeps them in a selector-keyed index.
package component

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/walteh/ngtmpls/pkg/position"
)

// Location points at a component's class name token.
type Location struct {
	Path  string
	Range position.Range
}

// URI returns the location's file as a file:// URI.
func (l Location) URI() string {
	path := l.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.Path, l.Range)
}

// Component is immutable once it has been put into an Index.
type Component struct {
	Selector  string
	ClassName string
	Location  Location
	Inputs    []string
	Outputs   []string
}
