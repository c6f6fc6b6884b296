package models

import (
	"strings"
	"time"
)

// RequestType is a permission code describing what a request asks for.
// Types other than the three known ones are server-defined permission codes
// that carry no type-specific payload.
type RequestType string

const (
	RequestTypeChangeCity RequestType = "change_city_request"
	RequestTypeChangeZone RequestType = "change_zone_request"
	RequestTypePass       RequestType = "pass_request"
)

// RequestStatus captures the lifecycle of a request.
type RequestStatus string

const (
	RequestStatusTodo      RequestStatus = "todo"
	RequestStatusInBatch   RequestStatus = "is_batch"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusDuplicate RequestStatus = "duplicate"
	RequestStatusDiscarded RequestStatus = "discarded"
)

// RequestStatuses lists the full status vocabulary in display order.
var RequestStatuses = []RequestStatus{
	RequestStatusTodo,
	RequestStatusInBatch,
	RequestStatusCompleted,
	RequestStatusDuplicate,
	RequestStatusDiscarded,
}

// Valid reports whether s belongs to the status vocabulary.
func (s RequestStatus) Valid() bool {
	for _, known := range RequestStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Editable reports whether an operator may still edit or delete the request.
func (s RequestStatus) Editable() bool {
	return s == RequestStatusTodo
}

// PassToggle selects the session a pass request is for.
type PassToggle string

const (
	PassToggleWaaz   PassToggle = "waaz"
	PassToggleMajlis PassToggle = "majlis"
	PassToggleBethak PassToggle = "bethak"
)

// Valid reports whether t is one of the supported sessions.
func (t PassToggle) Valid() bool {
	switch t {
	case PassToggleWaaz, PassToggleMajlis, PassToggleBethak:
		return true
	}
	return false
}

// PassDateLayout is the wire format of pass dates.
const PassDateLayout = "2006-01-02"

// Request is a single operator-submitted change or pass request.
type Request struct {
	ID          int64         `db:"id" json:"id"`
	ITS         string        `db:"its" json:"its"`
	Type        RequestType   `db:"type" json:"type"`
	Status      RequestStatus `db:"status" json:"status"`
	City        *int64        `db:"city_id" json:"city"`
	CityName    *string       `db:"city_name" json:"city_name,omitempty"`
	Zone        *int64        `db:"zone_id" json:"zone"`
	ZoneName    *string       `db:"zone_name" json:"zone_name,omitempty"`
	Toggle      *PassToggle   `db:"toggle" json:"toggle"`
	PassDate    *string       `db:"pass_date" json:"pass_date"`
	Meta        string        `db:"meta" json:"meta"`
	CreatedByID string        `db:"created_by_id" json:"created_by_id"`
	CreatedBy   string        `db:"created_by_username" json:"created_by"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Payload returns the type-specific slots of the request as a sum type value.
func (r Request) Payload() RequestPayload {
	switch r.Type {
	case RequestTypeChangeCity:
		p := CityChange{}
		if r.City != nil {
			p.City = *r.City
		}
		return p
	case RequestTypeChangeZone:
		p := ZoneChange{}
		if r.Zone != nil {
			p.Zone = *r.Zone
		}
		return p
	case RequestTypePass:
		p := PassRequest{}
		if r.Toggle != nil {
			p.Toggle = *r.Toggle
		}
		if r.PassDate != nil {
			p.PassDate = *r.PassDate
		}
		return p
	default:
		return OtherPayload{}
	}
}

// ApplyPayload stores p in the request and clears every slot p does not own.
func (r *Request) ApplyPayload(p RequestPayload) {
	r.City, r.Zone, r.Toggle, r.PassDate = nil, nil, nil, nil
	r.CityName, r.ZoneName = nil, nil
	switch v := p.(type) {
	case CityChange:
		city := v.City
		r.City = &city
	case ZoneChange:
		zone := v.Zone
		r.Zone = &zone
	case PassRequest:
		toggle := v.Toggle
		date := v.PassDate
		r.Toggle = &toggle
		r.PassDate = &date
	case OtherPayload:
	}
}

// Detail renders the type-specific payload the way the request list shows it.
func (r Request) Detail() string {
	switch p := r.Payload().(type) {
	case CityChange:
		if r.CityName != nil {
			return *r.CityName
		}
		if r.City != nil {
			return "city #" + itoa(p.City)
		}
	case ZoneChange:
		if r.ZoneName != nil {
			return *r.ZoneName
		}
		if r.Zone != nil {
			return "zone #" + itoa(p.Zone)
		}
	case PassRequest:
		return strings.ToUpper(string(p.Toggle)) + " - " + p.PassDate
	}
	return ""
}

// RequestFilter constrains listing queries.
type RequestFilter struct {
	Status    RequestStatus
	Type      RequestType
	CreatedBy string
	Page      int
	PageSize  int
}

// Pagination describes the page a list response carries.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// RequestGroup is a presentation aggregate of requests sharing ITS and type.
// Requests[0] is the representative row.
type RequestGroup struct {
	ITS      string      `json:"its"`
	Type     RequestType `json:"type"`
	Requests []Request   `json:"requests"`
}

// Representative returns the first request of the group.
func (g RequestGroup) Representative() (Request, bool) {
	if len(g.Requests) == 0 {
		return Request{}, false
	}
	return g.Requests[0], true
}

// Hidden returns the requests shown only when the group is expanded.
func (g RequestGroup) Hidden() []Request {
	if len(g.Requests) <= 1 {
		return nil
	}
	return g.Requests[1:]
}
