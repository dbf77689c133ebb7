package component_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/diff"
	"github.com/walteh/ngtmpls/pkg/position"
)

const fooSource = `import { Component, EventEmitter, Input, Output } from '@angular/core';

@Component({
  selector: 'app-foo',
  templateUrl: './foo.component.html',
})
export class FooComponent {
  @Input() value: string;
  @Output() changed = new EventEmitter<string>();
}
`

const barSource = `@Component({ templateUrl: './bar.html', selector: "app-bar" })
class BarComponent {
  @Input() set size(v: number) {}
  @HostListener('click') onClick() {}
  @Input() label = '';
  @Output() closed = new EventEmitter<void>();
  plain: string;
  helper() {}
}
`

func newAnalyzer(t *testing.T) *component.Analyzer {
	t.Helper()
	a, err := component.NewAnalyzer()
	require.NoError(t, err)
	return a
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []*component.Component
	}{
		{
			name: "exported component with input and output",
			src:  fooSource,
			want: []*component.Component{
				{
					Selector:  "app-foo",
					ClassName: "FooComponent",
					Location: component.Location{
						Path: "/ws/src/foo.ts",
						Range: position.Range{
							Start: position.Place{Line: 6, Character: 13},
							End:   position.Place{Line: 6, Character: 25},
						},
					},
					Inputs:  []string{"value"},
					Outputs: []string{"changed"},
				},
			},
		},
		{
			name: "unexported component with accessor members",
			src:  barSource,
			want: []*component.Component{
				{
					Selector:  "app-bar",
					ClassName: "BarComponent",
					Location: component.Location{
						Path: "/ws/src/foo.ts",
						Range: position.Range{
							Start: position.Place{Line: 1, Character: 6},
							End:   position.Place{Line: 1, Character: 18},
						},
					},
					Inputs:  []string{"size", "label"},
					Outputs: []string{"closed"},
				},
			},
		},
		{
			name: "plain class",
			src:  "export class Plain {\n  @Input() value: string;\n}\n",
			want: nil,
		},
		{
			name: "component without selector",
			src:  "@Component({ template: '<p></p>' })\nexport class NoSelector {}\n",
			want: nil,
		},
		{
			name: "selector under another decorator",
			src:  "@Directive({ selector: 'app-dir' })\nexport class Dir {}\n",
			want: nil,
		},
		{
			name: "empty file",
			src:  "",
			want: nil,
		},
	}

	a := newAnalyzer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Extract(context.Background(), "/ws/src/foo.ts", []byte(tt.src))
			require.NoError(t, err)
			diff.RequireEqual(t, tt.want, got)
		})
	}
}

func TestExtractMultipleComponentsInOneFile(t *testing.T) {
	src := fooSource + "\n" + barSource

	got, err := newAnalyzer(t).Extract(context.Background(), "/ws/src/both.ts", []byte(src))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "app-foo", got[0].Selector)
	assert.Equal(t, "app-bar", got[1].Selector)

	// members of one class never leak into another
	assert.Equal(t, []string{"value"}, got[0].Inputs)
	assert.Equal(t, []string{"size", "label"}, got[1].Inputs)
}

func TestExtractSkipsCommentsAfterMarker(t *testing.T) {
	const src = `@Component({ selector: 'app-size' })
export class SizeComponent {
  @Input()
  // clamps to the allowed range
  set size(v: number) {}

  @Output()
  /* fires on every resize */
  resized() {}

  @Input() label = '';
  // not an input
  helper() {}
}
`

	got, err := newAnalyzer(t).Extract(context.Background(), "/ws/src/size.ts", []byte(src))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, []string{"size", "label"}, got[0].Inputs)
	assert.Equal(t, []string{"resized"}, got[0].Outputs)
}

func TestExtractIsIdempotent(t *testing.T) {
	a := newAnalyzer(t)
	ctx := context.Background()

	first, err := a.Extract(ctx, "/ws/src/foo.ts", []byte(fooSource))
	require.NoError(t, err)
	second, err := a.Extract(ctx, "/ws/src/foo.ts", []byte(fooSource))
	require.NoError(t, err)

	assert.Equal(t, first, second)

	idx := component.NewIndex()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ws/src/foo.ts", []byte(fooSource), 0o644))

	n, err := a.AnalyzeFile(ctx, fs, "/ws/src/foo.ts", idx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	before, _ := idx.Get("app-foo")

	_, err = a.AnalyzeFile(ctx, fs, "/ws/src/foo.ts", idx)
	require.NoError(t, err)
	after, _ := idx.Get("app-foo")

	assert.Equal(t, before, after)
	assert.Equal(t, 1, idx.Len())
}

func TestAnalyzeFileMissing(t *testing.T) {
	idx := component.NewIndex()

	n, err := newAnalyzer(t).AnalyzeFile(context.Background(), afero.NewMemMapFs(), "/ws/src/nope.ts", idx)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Zero(t, idx.Len())
}

func TestLocationURI(t *testing.T) {
	loc := component.Location{Path: "/ws/src/a.ts"}
	assert.Equal(t, "file:///ws/src/a.ts", loc.URI())
}
