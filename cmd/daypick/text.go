package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"daypick/internal/model"
	"daypick/internal/picker"
)

// printCalendar writes the displayed months as a text grid. Each day is
// followed by a marker: '#' selected, '*' today, 'x' disabled, '>' focused.
// Hidden days are left blank.
func printCalendar(w io.Writer, p *picker.Picker) error {
	var b strings.Builder
	lib := p.Lib()

	for i, m := range p.Months() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %d\n", m.Month.Month, m.Month.Year)

		var header strings.Builder
		for j := range 7 {
			wd := time.Weekday((int(lib.WeekStart()) + j) % 7)
			fmt.Fprintf(&header, "%3s ", wd.String()[:2])
		}
		b.WriteString(strings.TrimRight(header.String(), " ") + "\n")

		for _, week := range m.Weeks {
			var line strings.Builder
			for _, day := range week.Days {
				mods := p.Modifiers(day)
				if mods.Has(model.Hidden) {
					line.WriteString("    ")
					continue
				}
				fmt.Fprintf(&line, "%3d%c", day.Date.Day, marker(mods))
			}
			b.WriteString(strings.TrimRight(line.String(), " ") + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func marker(mods model.Modifiers) rune {
	switch {
	case mods.Has(model.Selected):
		return '#'
	case mods.Has(model.Today):
		return '*'
	case mods.Has(model.Disabled):
		return 'x'
	case mods.Has(model.Focused):
		return '>'
	}
	return ' '
}
