package scan_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/ngtmpls/cmd/ngtmpls/scan"
)

const fooSource = `@Component({ selector: 'app-foo' })
export class FooComponent {
  @Input() value: string;
  @Output() changed = new EventEmitter<string>();
}
`

func TestScanCommand(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app", "foo.component.ts"), []byte(fooSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app", "foo.component.html"), []byte("<p></p>"), 0o644))

	var out bytes.Buffer
	cmd := scan.NewScanCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{root, "--log-level=error"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	got := out.String()
	assert.Contains(t, got, "app-foo FooComponent")
	assert.Contains(t, got, "inputs:  value")
	assert.Contains(t, got, "outputs: changed")
	assert.Contains(t, got, "1 components in 1 files (src/**/*.ts)")
}

func TestScanCommandSourceDirFlag(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "foo.ts"), []byte(fooSource), 0o644))

	var out bytes.Buffer
	cmd := scan.NewScanCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{root, "--source-dir=lib", "--log-level=error"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "1 components in 1 files (lib/**/*.ts)")
}
