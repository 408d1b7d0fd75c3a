package render

import (
	"strings"

	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TooltipItem is a line of a bin tooltip.
type TooltipItem struct {
	DisplayName string `json:"displayName"`
	Value       string `json:"value"`
}

// Tooltip builds the tooltip payload of a bin, with numbers formatted for English.
func Tooltip(bin model.Bin, names model.Names) []TooltipItem {
	return tooltip(message.NewPrinter(language.English), bin, names)
}

func tooltip(p *message.Printer, bin model.Bin, names model.Names) []TooltipItem {
	value := orDefault(names.Value, "Value")
	s := bin.Stats

	return []TooltipItem{
		{DisplayName: "Count", Value: p.Sprintf("%d", s.Count)},
		{DisplayName: "Sum of " + value, Value: p.Sprintf("%.2f", s.ValueSum)},
		{DisplayName: "Mean of " + value, Value: p.Sprintf("%.2f", s.ValueMean)},
		{DisplayName: "Median of " + value, Value: p.Sprintf("%.2f", s.ValueMedian)},
		{DisplayName: "Min of " + value, Value: p.Sprintf("%.2f", s.ValueMin)},
		{DisplayName: "Max of " + value, Value: p.Sprintf("%.2f", s.ValueMax)},
		{DisplayName: "Mean of " + orDefault(names.X, "X"), Value: p.Sprintf("%.2f", s.XMean)},
		{DisplayName: "Mean of " + orDefault(names.Y, "Y"), Value: p.Sprintf("%.2f", s.YMean)},
	}
}

// TooltipText renders tooltip items one per line, as "name: value".
func TooltipText(items []TooltipItem) string {
	var b strings.Builder

	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(item.DisplayName)
		b.WriteString(": ")
		b.WriteString(item.Value)
	}

	return b.String()
}

func orDefault(in, def string) string {
	if in == "" {
		return def
	}

	return in
}
