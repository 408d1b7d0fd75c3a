package visual

import (
	"bytes"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fredbi/hexbinviz/internal/pkg/config"
	"github.com/fredbi/hexbinviz/internal/pkg/model"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestUpdate(t *testing.T) {
	v := New(mustLoadDefaults(t))
	table := sampleTable(60)

	var buf bytes.Buffer
	pass, err := v.Update(&buf, UpdateOptions{Table: table})
	require.NoError(t, err)
	require.NotNil(t, pass)

	assert.Len(t, pass.Dataset.Points, 60)
	assert.Equal(t, model.Viewport{Width: 800, Height: 600}, pass.Viewport, "the configured viewport is used by default")
	assert.Equal(t, config.DefaultOptions(), pass.Options)
	assert.InDelta(t, config.DefaultHexRadius, pass.Outline.Radius, 1e-9)

	var total int
	for _, bin := range pass.Bins {
		total += bin.Stats.Count
	}
	assert.Equal(t, 60, total, "every point lands in exactly one bin")
	assert.Len(t, pass.Transition.Entered, len(pass.Bins))

	out := buf.String()
	assert.Contains(t, out, `class="svgHexbinContainer"`)
	assert.Contains(t, out, `data-key="`)
	assert.Contains(t, out, "<circle", "points are shown by default")

	assert.Same(t, pass, v.Last())
}

func TestUpdateWithObjects(t *testing.T) {
	v := New(mustLoadDefaults(t))

	pass, err := v.Update(io.Discard, UpdateOptions{
		Table: sampleTable(30),
		Objects: map[string]any{
			"general": map[string]any{
				"hexRadius": "40",
				"fill":      "#ff0000",
			},
		},
	})
	require.NoError(t, err)

	assert.InDelta(t, 40, pass.Options.HexRadius, 1e-9)
	assert.Equal(t, "#ff0000", pass.Options.Fill)
	assert.InDelta(t, 40, pass.Outline.Radius, 1e-9)

	instances := v.Enumerate(config.ObjectGeneral)
	require.Len(t, instances, 1)
	assert.Equal(t, 40.0, instances[0].Properties[config.PropertyHexRadius])
	assert.Empty(t, v.Enumerate("dataPoint"))

	t.Run("invalid options fall back to defaults", func(t *testing.T) {
		pass, err := v.Update(io.Discard, UpdateOptions{
			Table: sampleTable(30),
			Objects: map[string]any{
				"general": map[string]any{
					"hexRadius": -3,
					"fill":      "not a color",
				},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, config.DefaultOptions(), pass.Options)
	})
}

func TestUpdateRefitsViewport(t *testing.T) {
	v := New(mustLoadDefaults(t))
	table := sampleTable(40)

	small, err := v.Update(io.Discard, UpdateOptions{Table: table, Viewport: model.Viewport{Width: 400, Height: 300}})
	require.NoError(t, err)
	_, xr := small.X.Range()
	y0, _ := small.Y.Range()
	assert.InDelta(t, 260, xr, 1e-9)
	assert.InDelta(t, 260, y0, 1e-9)

	large, err := v.Update(io.Discard, UpdateOptions{Table: table, Viewport: model.Viewport{Width: 1000, Height: 700}})
	require.NoError(t, err)
	_, xr = large.X.Range()
	y0, _ = large.Y.Range()
	assert.InDelta(t, 860, xr, 1e-9)
	assert.InDelta(t, 660, y0, 1e-9)
}

func TestUpdateEmpty(t *testing.T) {
	v := New(mustLoadDefaults(t))

	_, err := v.Update(io.Discard, UpdateOptions{Table: sampleTable(20)})
	require.NoError(t, err)

	var buf bytes.Buffer
	pass, err := v.Update(&buf, UpdateOptions{Table: &model.Table{}})
	require.NoError(t, err)

	assert.Empty(t, pass.Bins)
	assert.Empty(t, pass.Dataset.Points)
	assert.Empty(t, pass.Transition.Exited)
	assert.NotContains(t, buf.String(), "data-key", "no stale bin is left on screen")

	pass, err = v.Update(io.Discard, UpdateOptions{})
	require.NoError(t, err, "a nil table is an empty table")
	assert.Empty(t, pass.Bins)
}

func TestUpdateColorByCount(t *testing.T) {
	cfg := mustLoadDefaults(t)
	cfg.Render.ColorBy = config.ColorByCount

	pass, err := New(cfg).Update(io.Discard, UpdateOptions{Table: sampleTable(50)})
	require.NoError(t, err)

	var maxCount int
	for _, bin := range pass.Bins {
		maxCount = max(maxCount, bin.Stats.Count)
	}
	assert.GreaterOrEqual(t, pass.Colors.Max, float64(maxCount))

	bin := model.Bin{Stats: model.BinStats{Count: 3, ValueSum: 12}}
	assert.InDelta(t, 3, Saturation(config.ColorByCount)(bin), 1e-9)
	assert.InDelta(t, 12, Saturation(config.ColorBySum)(bin), 1e-9)
}

func TestUpdateRenderSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		v := New(mustLoadDefaults(t))

		var buf bytes.Buffer
		pass, err := v.Update(&buf, UpdateOptions{Table: sampleTable(10)})
		require.NoError(t, err)

		assert.Equal(t, 2*time.Second, pass.Animation)
		assert.Contains(t, buf.String(), `r="2"`)
	})

	t.Run("configured dots and transitions", func(t *testing.T) {
		cfg := mustLoadDefaults(t)
		cfg.Render.DotRadius = 5
		cfg.Render.Transition = "1500ms"
		v := New(cfg)

		var buf bytes.Buffer
		pass, err := v.Update(&buf, UpdateOptions{Table: sampleTable(10)})
		require.NoError(t, err)

		assert.Equal(t, 1500*time.Millisecond, pass.Animation)
		assert.Contains(t, buf.String(), `r="5"`)
		assert.NotContains(t, buf.String(), `r="2"`)
	})
}

func TestDestroy(t *testing.T) {
	v := New(mustLoadDefaults(t))

	_, err := v.Update(io.Discard, UpdateOptions{
		Table:   sampleTable(10),
		Objects: map[string]any{"general": map[string]any{"hexRadius": 33}},
	})
	require.NoError(t, err)
	require.NotNil(t, v.Last())

	v.Destroy()
	assert.Nil(t, v.Last())
	assert.Equal(t, config.DefaultHexRadius, v.Enumerate(config.ObjectGeneral)[0].Properties[config.PropertyHexRadius])

	pass, err := v.Update(io.Discard, UpdateOptions{Table: sampleTable(10)})
	require.NoError(t, err)
	assert.Empty(t, pass.Transition.Updated, "nothing is retained after destroy")
}

func TestConcurrentUpdates(t *testing.T) {
	v := New(mustLoadDefaults(t))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := v.Update(io.Discard, UpdateOptions{
				Table:    sampleTable(20 + i),
				Viewport: model.Viewport{Width: float64(400 + 50*i), Height: 300},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.NotNil(t, v.Last())
}

// helpers

func mustLoadDefaults(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.LoadDefaults()
	require.NoError(t, err)

	return cfg
}

// sampleTable builds a positional table [category, x, y, value].
func sampleTable(rows int) *model.Table {
	table := &model.Table{
		Columns: []model.Column{
			{DisplayName: "region"},
			{DisplayName: "discount"},
			{DisplayName: "profit"},
			{DisplayName: "sales"},
		},
	}

	for i := range rows {
		table.Rows = append(table.Rows, []any{
			"r" + strconv.Itoa(i%4),
			float64(i%10) / 10,
			float64((i*7)%23) - 5,
			float64(i%5 + 1),
		})
	}

	return table
}
