package models

import "strconv"

// RequestPayload is the type-specific part of a request. Exactly one variant
// applies to a request, chosen by its type.
type RequestPayload interface {
	isRequestPayload()
}

// CityChange asks to move a person to another city.
type CityChange struct {
	City int64
}

// ZoneChange asks to move a person to another zone.
type ZoneChange struct {
	Zone int64
}

// PassRequest asks for a pass to a session on a date.
type PassRequest struct {
	Toggle   PassToggle
	PassDate string
}

// OtherPayload is used by permission codes that carry no extra fields.
type OtherPayload struct{}

func (CityChange) isRequestPayload()   {}
func (ZoneChange) isRequestPayload()   {}
func (PassRequest) isRequestPayload()  {}
func (OtherPayload) isRequestPayload() {}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
