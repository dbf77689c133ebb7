// Package diff renders readable structural diffs for test failures.
package diff

import (
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/require"
)

func printer() *pp.PrettyPrinter {
	p := pp.New()
	p.SetExportedOnly(true)
	p.SetColoringEnabled(false)
	return p
}

// Exported pretty prints want and got, ignoring unexported fields, and
// returns the line diff needed to turn got into want. It is empty when the
// two print identically.
func Exported[T any](want T, got T) string {
	p := printer()
	lines := diff.Diff(p.Sprint(got), p.Sprint(want))
	if lines == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\nto turn ACTUAL into EXPECTED:\n\n")
	sb.WriteString("add:    +\n")
	sb.WriteString("remove: -\n\n")
	sb.WriteString(lines)
	return sb.String()
}

// RequireEqual fails the test with a structural diff when want and got differ.
func RequireEqual[T any](t require.TestingT, want T, got T) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	if d := Exported(want, got); d != "" {
		require.Fail(t, "values differ", d)
	}
}
