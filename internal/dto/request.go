package dto

import "github.com/noah-isme/miqaat-rms-api/internal/models"

// RequestForm is the create/edit payload of a request. Slots that do not
// apply to the chosen type travel as null.
type RequestForm struct {
	ITS      string             `json:"its" validate:"its"`
	Type     models.RequestType `json:"type" validate:"required"`
	City     *int64             `json:"city"`
	Zone     *int64             `json:"zone"`
	Toggle   *models.PassToggle `json:"toggle"`
	PassDate *string            `json:"pass_date"`
	Meta     string             `json:"meta"`
}

// FormFromRequest prefills a form with the values of an existing request.
func FormFromRequest(r models.Request) RequestForm {
	return RequestForm{
		ITS:      r.ITS,
		Type:     r.Type,
		City:     r.City,
		Zone:     r.Zone,
		Toggle:   r.Toggle,
		PassDate: r.PassDate,
		Meta:     r.Meta,
	}
}

// Payload projects the form onto the variant selected by its type. Missing
// values become zero values so validation can report them.
func (f RequestForm) Payload() models.RequestPayload {
	switch f.Type {
	case models.RequestTypeChangeCity:
		p := models.CityChange{}
		if f.City != nil {
			p.City = *f.City
		}
		return p
	case models.RequestTypeChangeZone:
		p := models.ZoneChange{}
		if f.Zone != nil {
			p.Zone = *f.Zone
		}
		return p
	case models.RequestTypePass:
		p := models.PassRequest{}
		if f.Toggle != nil {
			p.Toggle = *f.Toggle
		}
		if f.PassDate != nil {
			p.PassDate = *f.PassDate
		}
		return p
	default:
		return models.OtherPayload{}
	}
}

// Normalized returns the form with inapplicable slots cleared.
func (f RequestForm) Normalized() RequestForm {
	var r models.Request
	r.ApplyPayload(f.Payload())
	f.City, f.Zone, f.Toggle, f.PassDate = r.City, r.Zone, r.Toggle, r.PassDate
	return f
}

// RequestQuery mirrors supported listing filters.
type RequestQuery struct {
	Status    models.RequestStatus `form:"status"`
	Type      models.RequestType   `form:"type"`
	CreatedBy string               `form:"created_by"`
	Page      int                  `form:"page"`
	PageSize  int                  `form:"page_size"`
}
