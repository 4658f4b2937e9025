package route

import (
	"fmt"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/geom"
)

// Sign is the regulatory sign of a link. Some node types land positive and
// negative links on different pads.
type Sign int

const (
	Neutral Sign = iota
	Positive
	Negative
)

var signNames = [...]string{"neutral", "positive", "negative"}

func (s Sign) String() string {
	if int(s) >= 0 && int(s) < len(signNames) {
		return signNames[s]
	}
	return fmt.Sprintf("Sign(%d)", int(s))
}

// ParseSign is the inverse of Sign.String. The empty string is Neutral.
func ParseSign(s string) (Sign, error) {
	if s == "" {
		return Neutral, nil
	}
	for i, n := range signNames {
		if n == s {
			return Sign(i), nil
		}
	}
	return Neutral, lrerrors.New(lrerrors.ErrCodeInvalidInput, "unknown link sign %q", s)
}

// Link is one directed connection routed as part of its source's bus.
type Link struct {
	ID         string
	Source     string
	Target     string
	LaunchPad  int // pad index on the source
	LandingPad int // pad index on the target
	Sign       Sign
}

// PadProvider resolves pad indices to pixel offsets from a node's location.
type PadProvider interface {
	LaunchPad(node string, pad int) (geom.Vec, error)
	LandingPad(node string, pad int, sign Sign) (geom.Vec, error)
}

// Placement resolves a node id to its pixel location.
// *grid.Grid satisfies it.
type Placement interface {
	Location(node string) (geom.Point, bool)
}

// NodePads lists the pad offsets of one node. NegativeLanding, when set,
// replaces Landing for negative links.
type NodePads struct {
	Launch          []geom.Vec
	Landing         []geom.Vec
	NegativeLanding []geom.Vec
}

// StaticPads is a PadProvider backed by fixed per-node tables. Nodes without
// an entry launch and land at their location for every pad index.
type StaticPads map[string]NodePads

// LaunchPad implements PadProvider.
func (p StaticPads) LaunchPad(node string, pad int) (geom.Vec, error) {
	np, ok := p[node]
	if !ok || np.Launch == nil {
		return geom.Vec{}, nil
	}
	return padAt(np.Launch, node, "launch", pad)
}

// LandingPad implements PadProvider.
func (p StaticPads) LandingPad(node string, pad int, sign Sign) (geom.Vec, error) {
	np, ok := p[node]
	if !ok {
		return geom.Vec{}, nil
	}
	table := np.Landing
	if sign == Negative && np.NegativeLanding != nil {
		table = np.NegativeLanding
	}
	if table == nil {
		return geom.Vec{}, nil
	}
	return padAt(table, node, "landing", pad)
}

func padAt(table []geom.Vec, node, kind string, pad int) (geom.Vec, error) {
	if pad < 0 || pad >= len(table) {
		return geom.Vec{}, lrerrors.New(lrerrors.ErrCodeStructural, "%s pad %d of node %q does not exist (%d pads)", kind, pad, node, len(table))
	}
	return table[pad], nil
}

// PointPlacement is a Placement backed by a fixed map, for callers that place
// nodes themselves.
type PointPlacement map[string]geom.Point

// Location implements Placement.
func (p PointPlacement) Location(node string) (geom.Point, bool) {
	pt, ok := p[node]
	return pt, ok
}
