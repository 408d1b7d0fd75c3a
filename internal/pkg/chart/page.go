package chart

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/components"
)

// Page is the HTML document holding the charts of an update cycle.
//
// A single chart is centered, several charts flow side by side.
type Page struct {
	Title      string
	AssetsHost string
	Charts     []*Chart
}

// NewPage creates an empty page. An empty assetsHost keeps the go-echarts default host.
func NewPage(title, assetsHost string) *Page {
	return &Page{
		Title:      title,
		AssetsHost: assetsHost,
	}
}

// AddChart adds a chart to the page. Nil charts are ignored.
func (p *Page) AddChart(c *Chart) {
	if c == nil {
		return
	}

	p.Charts = append(p.Charts, c)
}

// Render writes the page HTML to w.
func (p *Page) Render(w io.Writer) error {
	page := components.NewPage().SetPageTitle(p.Title).SetLayout(p.layout())
	if p.AssetsHost != "" {
		page.SetAssetsHost(p.AssetsHost)
	}

	for _, c := range p.Charts {
		page.AddCharts(c.Build())
	}

	return page.Render(w)
}

func (p *Page) layout() components.Layout {
	if len(p.Charts) > 1 {
		return components.PageFlexLayout
	}

	return components.PageCenterLayout
}
