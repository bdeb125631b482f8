/*
Copyright © 2018 the soilcn authors.
This file is part of soilcn.

soilcn is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

soilcn is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with soilcn.  If not, see <http://www.gnu.org/licenses/>.
*/

package soilcn

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	figWidth  = 6 * vg.Inch
	figHeight = 4 * vg.Inch
)

// poolSeries are the carbon pools shown in the pool plot.
var poolSeries = []struct {
	name  string
	color color.Color
	value func(r *YearRecord) float64
}{
	{"Soil carbon", color.NRGBA{0, 0, 0, 255}, func(r *YearRecord) float64 { return r.SoilCarbon }},
	{"Old pool", color.NRGBA{127, 127, 127, 255}, func(r *YearRecord) float64 { return r.OldPoolCarbon }},
	{"Young pool", color.NRGBA{255, 0, 0, 255}, func(r *YearRecord) float64 { return r.YoungPoolCarbon }},
}

// PlotPools writes a PNG image of the carbon pools of f over time to w.
func PlotPools(w io.Writer, f *Field) error {
	if len(f.Years) == 0 {
		return fmt.Errorf("soilcn: field %s has no years to plot", f.Name)
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = f.Name
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Carbon (kg C/ha)"
	p.Legend.Top = true

	for _, s := range poolSeries {
		xy := make(plotter.XYs, len(f.Years))
		for i, r := range f.Years {
			xy[i].X = float64(r.Year)
			xy[i].Y = s.value(r)
		}
		l, err := plotter.NewLine(xy)
		if err != nil {
			return fmt.Errorf("soilcn: plotting %s: %v", s.name, err)
		}
		l.Color = s.color
		p.Add(l)
		p.Legend.Add(s.name, l)
	}

	c := vgimg.NewWith(vgimg.UseWH(figWidth, figHeight), vgimg.UseDPI(96))
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("soilcn: writing plot: %v", err)
	}
	return nil
}
