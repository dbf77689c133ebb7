package component_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/ngtmpls/pkg/component"
)

func TestIndexPutGet(t *testing.T) {
	idx := component.NewIndex()

	first := &component.Component{Selector: "app-foo", ClassName: "First"}
	second := &component.Component{Selector: "app-foo", ClassName: "Second"}

	assert.False(t, idx.Put(first))
	assert.True(t, idx.Put(second))

	got, ok := idx.Get("app-foo")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, idx.Len())

	_, ok = idx.Get("app-bar")
	assert.False(t, ok)
}

func TestIndexAllSorted(t *testing.T) {
	idx := component.NewIndex()
	for _, s := range []string{"app-c", "app-a", "app-b"} {
		idx.Put(&component.Component{Selector: s})
	}

	var got []string
	for _, c := range idx.All() {
		got = append(got, c.Selector)
	}
	assert.Equal(t, []string{"app-a", "app-b", "app-c"}, got)
}

func TestIndexWatch(t *testing.T) {
	idx := component.NewIndex()
	events := idx.Watch()

	idx.Put(&component.Component{Selector: "app-foo"})
	idx.Put(&component.Component{Selector: "app-foo"})

	ev := <-events
	assert.Equal(t, component.EventTypeAdded, ev.Type)
	assert.Equal(t, "app-foo", ev.Component.Selector)

	ev = <-events
	assert.Equal(t, component.EventTypeUpdated, ev.Type)
	assert.Equal(t, "updated", ev.Type.String())

	idx.Unwatch(events)
	_, open := <-events
	assert.False(t, open)

	// puts after unwatch must not panic on the closed channel
	idx.Put(&component.Component{Selector: "app-bar"})
}

func TestIndexConcurrentInsertAndLookup(t *testing.T) {
	const writers, readers, perWriter = 8, 8, 50

	idx := component.NewIndex()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				idx.Put(&component.Component{Selector: fmt.Sprintf("app-%d-%d", w, i)})
			}
		}(w)
	}
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, _ = idx.Get(fmt.Sprintf("app-0-%d", i))
				_ = idx.All()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, idx.Len())
	for w := 0; w < writers; w++ {
		for i := 0; i < perWriter; i++ {
			c, ok := idx.Get(fmt.Sprintf("app-%d-%d", w, i))
			require.True(t, ok)
			assert.Equal(t, fmt.Sprintf("app-%d-%d", w, i), c.Selector)
		}
	}
}

func TestIndexProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("interleaved inserts and lookups never lose an entry", prop.ForAll(
		func(n int, m int) bool {
			idx := component.NewIndex()

			var wg sync.WaitGroup
			inserted := make(chan string, n)

			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					sel := fmt.Sprintf("app-%d", i)
					idx.Put(&component.Component{Selector: sel, ClassName: sel})
					inserted <- sel
				}(i)
			}

			lost := make(chan string, m)
			for j := 0; j < m; j++ {
				wg.Add(1)
				go func(j int) {
					defer wg.Done()
					sel := fmt.Sprintf("app-%d", j%max(n, 1))
					if c, ok := idx.Get(sel); ok && c.ClassName != sel {
						lost <- sel
					}
				}(j)
			}

			wg.Wait()
			close(inserted)
			close(lost)

			if len(lost) > 0 {
				return false
			}

			for sel := range inserted {
				c, ok := idx.Get(sel)
				if !ok || c.Selector != sel {
					return false
				}
			}
			return idx.Len() == n
		},
		gen.IntRange(0, 40),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}
