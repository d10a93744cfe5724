package model

// Resource is a schema-less document as exchanged with clients.
// The schema itself is owned by the consuming application and enforced
// (if at all) by MongoDB; this service never inspects it beyond the
// id field and configured exclusions.
type Resource map[string]any

// Page describes one page of a listing, Spring-Data style.
// Page numbers are zero based.
type Page struct {
	Size          int64 `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int64 `json:"totalPages"`
	Number        int64 `json:"number"`
}

// PageRef points at another page of the same listing.
type PageRef struct {
	Page int64 `json:"page"`
	Size int64 `json:"size"`
}

// PageLinks carries the navigation refs for a listing. A nil ref means
// the link does not apply (e.g. no Prev on the first page).
type PageLinks struct {
	First *PageRef `json:"first,omitempty"`
	Prev  *PageRef `json:"prev,omitempty"`
	Next  *PageRef `json:"next,omitempty"`
	Last  *PageRef `json:"last,omitempty"`
}
