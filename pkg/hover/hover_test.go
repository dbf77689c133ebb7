package hover_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/hover"
	"github.com/walteh/ngtmpls/pkg/position"
	"github.com/walteh/ngtmpls/pkg/syntax"
)

var fooComponent = &component.Component{
	Selector:  "app-foo",
	ClassName: "FooComponent",
	Location: component.Location{
		Path: "/ws/src/app/foo.component.ts",
		Range: position.Range{
			Start: position.Place{Line: 6, Character: 13},
			End:   position.Place{Line: 6, Character: 25},
		},
	},
	Inputs:  []string{"value"},
	Outputs: []string{"changed"},
}

const fooCard = "**FooComponent** `<app-foo>`\n" +
	"\ninputs: `value`\n" +
	"\noutputs: `changed`\n" +
	"\ndeclared in foo.component.ts:7:14\n"

func testIndex() *component.Index {
	idx := component.NewIndex()
	idx.Put(fooComponent)
	return idx
}

func TestHover(t *testing.T) {
	const src = `<app-foo [value]="x" (changed)="y"></app-foo>`

	tests := []struct {
		name      string
		src       string
		offset    int
		want      string
		wantStart int
		wantEnd   int
	}{
		{"start tag", src, 3, fooCard, 1, 8},
		{"end tag", src, 40, fooCard, 37, 44},
		{"input binding", src, 12, "(input) `value` of **FooComponent**", 9, 16},
		{"output binding", src, 25, "(output) `changed` of **FooComponent**", 21, 30},
		{"two way binding", `<app-foo [(value)]="x"></app-foo>`, 12, "(input) `value` of **FooComponent**", 9, 18},
		{"unknown tag", `<app-bar></app-bar>`, 3, "", 0, 0},
		{"unknown attribute", `<app-foo title="x"></app-foo>`, 11, "", 0, 0},
		{"event on an input", `<app-foo (value)="x"></app-foo>`, 12, "", 0, 0},
		{"property on an output", `<app-foo [changed]="x"></app-foo>`, 12, "", 0, 0},
		{"attribute on unknown tag", `<div [value]="x"></div>`, 8, "", 0, 0},
		{"text", `hello`, 2, "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := syntax.HTML().Parse(context.Background(), []byte(tt.src))
			require.NoError(t, err)
			defer tree.Close()

			info, ok := hover.Hover(tree, tt.offset, testIndex())
			if tt.want == "" {
				assert.False(t, ok)
				assert.Nil(t, info)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, info.Content)
			assert.Equal(t, tt.wantStart, info.Start)
			assert.Equal(t, tt.wantEnd, info.End)
		})
	}
}

func TestBindingName(t *testing.T) {
	tests := map[string]string{
		"value":     "value",
		"[value]":   "value",
		"(changed)": "changed",
		"[(value)]": "value",
	}
	for in, want := range tests {
		assert.Equal(t, want, hover.BindingName(in), in)
	}
}

func TestFormatComponentWithoutMembers(t *testing.T) {
	got := hover.FormatComponent(&component.Component{Selector: "app-bare", ClassName: "Bare"})
	assert.Equal(t, "**Bare** `<app-bare>`\n", got)
}
