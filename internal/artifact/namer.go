// Package artifact derives the per-input output file set and decides what
// to do when some of those files already exist.
package artifact

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Role identifies one output file within a Set.
type Role string

const (
	RoleAxy      Role = "axy"       // augmented coordinate list fed to the solve engine
	RoleMatch    Role = "match"     // record of the winning catalog match
	RoleRdls     Role = "rdls"      // catalog stars near the field, in sky coordinates
	RoleSolved   Role = "solved"    // sentinel marker: existence means the field solved
	RoleWCS      Role = "wcs"       // WCS solution header
	RoleObjsPNG  Role = "objs-png"  // detected-source overlay image
	RoleIndxPNG  Role = "indx-png"  // source + projected index overlay image
	RoleNgcPNG   Role = "ngc-png"   // constellation/annotation image
	RoleIndxXY   Role = "indx-xyls" // catalog stars projected into field pixel coordinates
	RoleDownload Role = "download"  // destination for a downloaded remote input
)

// Set is the full artifact path set for one input, all sharing one base.
type Set struct {
	Base   string // derived base path, no suffix
	Suffix string // the input's original dot-suffix, "" when none was found

	Axy      string
	Match    string
	Rdls     string
	Solved   string
	WCS      string
	ObjsPNG  string
	IndxPNG  string
	NgcPNG   string
	IndxXY   string
	Download string
}

// Path returns the path for a role.
func (s Set) Path(role Role) string {
	switch role {
	case RoleAxy:
		return s.Axy
	case RoleMatch:
		return s.Match
	case RoleRdls:
		return s.Rdls
	case RoleSolved:
		return s.Solved
	case RoleWCS:
		return s.WCS
	case RoleObjsPNG:
		return s.ObjsPNG
	case RoleIndxPNG:
		return s.IndxPNG
	case RoleNgcPNG:
		return s.NgcPNG
	case RoleIndxXY:
		return s.IndxXY
	case RoleDownload:
		return s.Download
	default:
		return ""
	}
}

// All returns every path in the set in a fixed scan order. The order is
// load-bearing for the existing-output policy: the first colliding path
// in this order is the one reported to the user.
func (s Set) All() []string {
	return []string{
		s.Axy, s.Match, s.Rdls, s.Solved, s.WCS,
		s.ObjsPNG, s.IndxPNG, s.NgcPNG, s.IndxXY, s.Download,
	}
}

// NamerOptions configure base-name derivation.
type NamerOptions struct {
	// OutDir, when set, places every artifact under this directory.
	OutDir string

	// BaseTemplate, when set, derives the base name from the template
	// instead of the input's filename. "%i" expands to the 1-based batch
	// index, "%s" to the raw input reference, "%%" to a literal percent.
	BaseTemplate string
}

// Derive computes the artifact set for one input. It is a pure function:
// identical inputs always yield identical sets, and no I/O is performed.
func Derive(ref string, index int, opts NamerOptions) Set {
	var stem string
	if opts.BaseTemplate != "" {
		stem = expandTemplate(opts.BaseTemplate, index, ref)
	} else {
		stem = ref
	}

	name := filepath.Base(stem)
	name, suffix := stripSuffix(name)

	base := name
	if opts.OutDir != "" {
		base = filepath.Join(opts.OutDir, name)
	}

	set := Set{
		Base:    base,
		Suffix:  suffix,
		Axy:     base + ".axy",
		Match:   base + ".match",
		Rdls:    base + ".rdls",
		Solved:  base + ".solved",
		WCS:     base + ".wcs",
		ObjsPNG: base + "-objs.png",
		IndxPNG: base + "-indx.png",
		NgcPNG:  base + "-ngc.png",
		IndxXY:  base + "-indx.xyls",
	}
	if suffix != "" {
		set.Download = base + "-downloaded." + suffix
	} else {
		set.Download = base + "-downloaded"
	}
	return set
}

// stripSuffix removes a trailing 2-4 character dot-suffix from name and
// returns the trimmed name plus the suffix (without the dot). Names too
// short to hold a suffix and a stem are left alone.
func stripSuffix(name string) (string, string) {
	if len(name) <= 4 {
		return name, ""
	}
	for j := 3; j <= 5; j++ {
		if j > len(name) {
			break
		}
		if name[len(name)-j] == '.' {
			return name[:len(name)-j], name[len(name)-j+1:]
		}
	}
	return name, ""
}

func expandTemplate(tmpl string, index int, ref string) string {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' || i+1 == len(tmpl) {
			b.WriteByte(tmpl[i])
			continue
		}
		i++
		switch tmpl[i] {
		case 'i':
			b.WriteString(strconv.Itoa(index))
		case 's':
			b.WriteString(ref)
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(tmpl[i])
		}
	}
	return b.String()
}
