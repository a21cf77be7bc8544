package domain

// Work represents one publication record from the remote bibliographic
// source. Works are immutable once fetched; every accessor tolerates the
// malformed records the source is known to produce.
type Work struct {
	ID              string
	Title           string
	PublicationYear int // 0 when the source record carries no year
	PublicationDate string
	Type            string
	CitedByCount    int
	Authorships     []Authorship
	Locations       []Location
}

// Authorship associates a Work with one author. AuthorID is empty when the
// source record is malformed; aggregations skip such entries.
type Authorship struct {
	AuthorID     string
	AuthorName   string
	ORCID        string
	Institutions []Institution
}

// Institution is an author's institutional affiliation on a single work.
type Institution struct {
	ID   string
	Name string
}

// Location is one place a work is available. The first location's source
// supplies the venue.
type Location struct {
	SourceID   string
	SourceName string
}

// Venue returns the display name of the work's first location source, or
// VenueUnknown when the location metadata is absent or malformed.
func (w Work) Venue() string {
	if len(w.Locations) == 0 {
		return VenueUnknown
	}
	if name := w.Locations[0].SourceName; name != "" {
		return name
	}
	return VenueUnknown
}

// HasYear reports whether the work carries a publication year.
func (w Work) HasYear() bool {
	return w.PublicationYear != 0
}

// AuthorPosition returns where authorID sits in the work's author list:
// first, last, or middle. It returns PositionUnknown when the work has no
// authorships or none of them carry authorID. The earliest matching index
// decides, and index 0 resolves to first even on single-author works
// (the first check precedes the last check).
func (w Work) AuthorPosition(authorID string) AuthorPosition {
	if len(w.Authorships) == 0 || authorID == "" {
		return PositionUnknown
	}

	idx := -1
	for i, a := range w.Authorships {
		if a.AuthorID == authorID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return PositionUnknown
	}

	switch {
	case idx == 0:
		return PositionFirst
	case idx == len(w.Authorships)-1:
		return PositionLast
	default:
		return PositionMiddle
	}
}

// TeamSize returns the number of authorships on the work, seed author included.
func (w Work) TeamSize() int {
	return len(w.Authorships)
}

// Collaborators returns the work's authorships excluding authorID and
// excluding entries with no author identifier.
func (w Work) Collaborators(authorID string) []Authorship {
	collabs := make([]Authorship, 0, len(w.Authorships))
	for _, a := range w.Authorships {
		if a.AuthorID == "" || a.AuthorID == authorID {
			continue
		}
		collabs = append(collabs, a)
	}
	return collabs
}
