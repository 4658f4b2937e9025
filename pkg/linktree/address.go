package linktree

import (
	"fmt"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
)

// AddressKind selects how an Address points into a tree.
type AddressKind int

const (
	// AddrDirect addresses the straight link of a direct tree.
	AddrDirect AddressKind = iota
	// AddrStartDrop addresses the leg from the source pad to the root.
	AddrStartDrop
	// AddrEndDrop addresses the leg from the tree to one target pad.
	AddrEndDrop
	// AddrSegment addresses a segment by id, or one of its endpoints.
	AddrSegment
)

var addressKindNames = [...]string{"direct", "start-drop", "end-drop", "segment"}

func (k AddressKind) String() string {
	if int(k) >= 0 && int(k) < len(addressKindNames) {
		return addressKindNames[k]
	}
	return fmt.Sprintf("AddressKind(%d)", int(k))
}

// Endpoint narrows a segment address to one end of the segment.
type Endpoint int

const (
	EndpointNone Endpoint = iota
	EndpointStart
	EndpointEnd
)

// Address is the location scheme shared by the tree editor and the router:
// a direct link, a start or end drop, or an interior segment (optionally one
// of its ends).
type Address struct {
	Kind     AddressKind
	Segment  SegmentID
	Endpoint Endpoint
	Target   string // link id for AddrEndDrop
}

// DirectAddr addresses the link of a direct tree.
func DirectAddr() Address { return Address{Kind: AddrDirect, Segment: NoSegment} }

// StartDropAddr addresses the root drop.
func StartDropAddr() Address { return Address{Kind: AddrStartDrop, Segment: NoSegment} }

// EndDropAddr addresses the end drop of the given link.
func EndDropAddr(target string) Address {
	return Address{Kind: AddrEndDrop, Segment: NoSegment, Target: target}
}

// SegmentAddr addresses a whole segment.
func SegmentAddr(id SegmentID) Address { return Address{Kind: AddrSegment, Segment: id} }

// SegmentEndAddr addresses the end point of a segment.
func SegmentEndAddr(id SegmentID) Address {
	return Address{Kind: AddrSegment, Segment: id, Endpoint: EndpointEnd}
}

// SegmentStartAddr addresses the start point of a segment.
func SegmentStartAddr(id SegmentID) Address {
	return Address{Kind: AddrSegment, Segment: id, Endpoint: EndpointStart}
}

func (a Address) String() string {
	switch a.Kind {
	case AddrEndDrop:
		return fmt.Sprintf("end-drop(%s)", a.Target)
	case AddrSegment:
		switch a.Endpoint {
		case EndpointStart:
			return fmt.Sprintf("segment(%d).start", a.Segment)
		case EndpointEnd:
			return fmt.Sprintf("segment(%d).end", a.Segment)
		}
		return fmt.Sprintf("segment(%d)", a.Segment)
	}
	return a.Kind.String()
}

// structural wraps a sentinel with the STRUCTURAL code so callers can match
// either on the code or with errors.Is on the sentinel.
func structural(sentinel error, format string, args ...any) error {
	return lrerrors.Wrap(lrerrors.ErrCodeStructural, sentinel, format, args...)
}
