// Package domain provides domain models and the error taxonomy for the Author Analytics Service.
package domain

// VenueUnknown is the fallback venue for works whose location metadata is
// absent or malformed.
const VenueUnknown = "N/A"

// AuthorPosition classifies where an author sits in a work's author list.
type AuthorPosition string

const (
	PositionFirst   AuthorPosition = "first"
	PositionLast    AuthorPosition = "last"
	PositionMiddle  AuthorPosition = "middle"
	PositionUnknown AuthorPosition = "unknown"
)

// CitationType classifies an incoming citation relative to the seed author's corpus.
type CitationType string

const (
	CitationSelf     CitationType = "self"
	CitationExternal CitationType = "external"
)
