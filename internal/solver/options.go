// Package solver owns the option set and argument building for the two
// solving collaborators: the prepare engine (augment-xylist), which turns
// inputs into augmented coordinate lists, and the solve engine (backend),
// which matches those lists against reference catalogs.
package solver

import (
	"github.com/spf13/pflag"
)

// Options are the prepare-engine knobs the driver exposes on its own
// command line. The set is contributed as a separate FlagSet so the CLI
// can merge it under the driver's own flags, dropping any short flag the
// driver already claims.
type Options struct {
	XColumn    string
	YColumn    string
	ScaleLow   float64
	ScaleHigh  float64
	ScaleUnits string
	Downsample int
	Depth      string
	NoTweak    bool
	TweakOrder int
	SortColumn string
	Invert     bool
}

// Flags returns the pflag set describing the prepare-engine options.
func (o *Options) Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("solver", pflag.ContinueOnError)
	fs.StringVarP(&o.XColumn, "x-column", "X", "", "name of the FITS column containing X coordinates")
	fs.StringVarP(&o.YColumn, "y-column", "Y", "", "name of the FITS column containing Y coordinates")
	fs.Float64VarP(&o.ScaleLow, "scale-low", "L", 0, "lower bound of the image scale estimate")
	fs.Float64VarP(&o.ScaleHigh, "scale-high", "H", 0, "upper bound of the image scale estimate")
	fs.StringVarP(&o.ScaleUnits, "scale-units", "u", "", "units of the scale estimate (degwidth, arcminwidth, arcsecperpix)")
	fs.IntVarP(&o.Downsample, "downsample", "z", 0, "downsample the image by this factor before source extraction")
	fs.StringVarP(&o.Depth, "depth", "d", "", "number of field objects to look at, or range of numbers")
	fs.BoolVarP(&o.NoTweak, "no-tweak", "T", false, "don't fine-tune the solution with a polynomial correction")
	fs.IntVarP(&o.TweakOrder, "tweak-order", "t", 0, "polynomial order of the tuning correction")
	fs.StringVarP(&o.SortColumn, "sort-column", "s", "", "sort the source list by this column before solving")
	fs.BoolVar(&o.Invert, "invert", false, "invert the image before extracting sources")
	return fs
}

// addTo appends the configured knobs to a prepare-engine command line.
func (o *Options) addTo(c *argAppender) {
	if o.XColumn != "" {
		c.flagValue("--x-column", o.XColumn)
	}
	if o.YColumn != "" {
		c.flagValue("--y-column", o.YColumn)
	}
	if o.ScaleLow > 0 {
		c.flagFloat("--scale-low", o.ScaleLow)
	}
	if o.ScaleHigh > 0 {
		c.flagFloat("--scale-high", o.ScaleHigh)
	}
	if o.ScaleUnits != "" {
		c.flagValue("--scale-units", o.ScaleUnits)
	}
	if o.Downsample > 0 {
		c.flagInt("--downsample", o.Downsample)
	}
	if o.Depth != "" {
		c.flagValue("--depth", o.Depth)
	}
	if o.NoTweak {
		c.flag("--no-tweak")
	}
	if o.TweakOrder > 0 {
		c.flagInt("--tweak-order", o.TweakOrder)
	}
	if o.SortColumn != "" {
		c.flagValue("--sort-column", o.SortColumn)
	}
	if o.Invert {
		c.flag("--invert")
	}
}
