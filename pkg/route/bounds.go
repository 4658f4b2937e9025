package route

import (
	"cmp"
	"maps"
	"slices"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/grid"
)

// Bounds summarises where the targets of one bundle sit relative to the
// source, in the axis-neutral major/minor terms of Axis.
//
// Only majors that contain at least one target get a Band. Majors up to and
// including the source's own are the Lower side; majors past it are the
// Higher side.
type Bounds struct {
	SourceMajor int
	SourceMinor int

	bands map[int]*Band
	links map[string]Link
}

// Band holds the targets of one bundle in one major (a row, for Vertical).
type Band struct {
	Major    int
	MinMinor int
	MaxMinor int
	// Lower holds buckets with a minor index below the source's, Higher the
	// rest. Both are sorted nearest to the source first.
	Lower  []Bucket
	Higher []Bucket
}

// Bucket is the set of links landing in one cell of a band.
type Bucket struct {
	Minor int
	// Links are ordered so branches open outward: descending landing pad in
	// a Lower bucket, ascending in a Higher one, then by link id.
	Links []string
}

// LinkFilter selects which links of a bundle a Bounds covers. A nil filter
// keeps everything.
type LinkFilter func(Link) bool

// NewBounds locates the source and every selected target on g and groups the
// targets into bands. A node missing from the grid is a NOT_FOUND error.
func NewBounds(g *grid.Grid, axis Axis, source string, links []Link, keep LinkFilter) (*Bounds, error) {
	sr, sc, ok := g.Locate(source)
	if !ok {
		return nil, lrerrors.New(lrerrors.ErrCodeNotFound, "source %q is not on the grid", source)
	}
	b := &Bounds{bands: make(map[int]*Band), links: make(map[string]Link)}
	b.SourceMajor, b.SourceMinor = axis.split(sr, sc)

	type entry struct {
		minor int
		link  Link
	}
	cells := make(map[int][]entry)
	for _, l := range links {
		if keep != nil && !keep(l) {
			continue
		}
		if _, dup := b.links[l.ID]; dup {
			return nil, lrerrors.New(lrerrors.ErrCodeStructural, "link %q appears twice in the bundle", l.ID)
		}
		tr, tc, ok := g.Locate(l.Target)
		if !ok {
			return nil, lrerrors.New(lrerrors.ErrCodeNotFound, "target %q of link %q is not on the grid", l.Target, l.ID)
		}
		major, minor := axis.split(tr, tc)
		b.links[l.ID] = l
		cells[major] = append(cells[major], entry{minor, l})

		band, ok := b.bands[major]
		if !ok {
			band = &Band{Major: major, MinMinor: minor, MaxMinor: minor}
			b.bands[major] = band
		}
		band.MinMinor = min(band.MinMinor, minor)
		band.MaxMinor = max(band.MaxMinor, minor)
	}

	for major, entries := range cells {
		byMinor := make(map[int][]Link)
		for _, e := range entries {
			byMinor[e.minor] = append(byMinor[e.minor], e.link)
		}
		band := b.bands[major]
		for _, minor := range slices.Sorted(maps.Keys(byMinor)) {
			lower := minor < b.SourceMinor
			ls := byMinor[minor]
			slices.SortFunc(ls, func(x, y Link) int {
				c := cmp.Compare(x.LandingPad, y.LandingPad)
				if lower {
					c = -c
				}
				if c != 0 {
					return c
				}
				return cmp.Compare(x.ID, y.ID)
			})
			ids := make([]string, len(ls))
			for i, l := range ls {
				ids[i] = l.ID
			}
			if lower {
				band.Lower = append(band.Lower, Bucket{Minor: minor, Links: ids})
			} else {
				band.Higher = append(band.Higher, Bucket{Minor: minor, Links: ids})
			}
		}
		// Lower was filled in ascending minor order; nearest first means reversed.
		slices.Reverse(band.Lower)
	}
	return b, nil
}

// Empty reports whether no link was selected.
func (b *Bounds) Empty() bool { return len(b.links) == 0 }

// Link returns the selected link with the given id.
func (b *Bounds) Link(id string) (Link, bool) {
	l, ok := b.links[id]
	return l, ok
}

// Band returns the band at major, if any target lands there.
func (b *Bounds) Band(major int) (*Band, bool) {
	band, ok := b.bands[major]
	return band, ok
}

// LowerMajors returns the Lower-side majors holding targets, nearest to the
// source first.
func (b *Bounds) LowerMajors() []int {
	var out []int
	for _, m := range slices.Sorted(maps.Keys(b.bands)) {
		if m <= b.SourceMajor {
			out = append(out, m)
		}
	}
	slices.Reverse(out)
	return out
}

// HigherMajors returns the Higher-side majors holding targets, nearest to
// the source first.
func (b *Bounds) HigherMajors() []int {
	var out []int
	for _, m := range slices.Sorted(maps.Keys(b.bands)) {
		if m > b.SourceMajor {
			out = append(out, m)
		}
	}
	return out
}

// Anchor picks the link that carries the riser for one side: a target in the
// farthest major of that side, the one nearest the source's minor. majors
// must be ordered nearest first, as returned by LowerMajors or HigherMajors.
func (b *Bounds) Anchor(majors []int) (string, bool) {
	if len(majors) == 0 {
		return "", false
	}
	band := b.bands[majors[len(majors)-1]]
	return band.nearest(b.SourceMinor), true
}

// nearest returns the first link of the bucket closest to minor. Ties go to
// the Lower bucket.
func (band *Band) nearest(minor int) string {
	var best *Bucket
	dist := func(k *Bucket) int {
		d := k.Minor - minor
		if d < 0 {
			return -d
		}
		return d
	}
	for _, side := range [][]Bucket{band.Lower, band.Higher} {
		if len(side) > 0 && (best == nil || dist(&side[0]) < dist(best)) {
			best = &side[0]
		}
	}
	return best.Links[0]
}

// Links returns every link id of the band: Lower buckets then Higher, each
// nearest first.
func (band *Band) Links() []string {
	var out []string
	for _, k := range band.Lower {
		out = append(out, k.Links...)
	}
	for _, k := range band.Higher {
		out = append(out, k.Links...)
	}
	return out
}
