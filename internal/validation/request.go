// Package validation holds the form rules shared by the API and its clients.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

var itsPattern = regexp.MustCompile(`^\d{8}$`)

// Mode selects the wording used for create and edit forms.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Field error messages.
const (
	MsgITS       = "ITS must be an 8-digit number."
	MsgType      = "Please select a type."
	MsgCity      = "Please select a city."
	MsgZone      = "Please select a zone."
	MsgToggle    = "Please select waaz or majlis or bethak."
	MsgPassDate  = "Please pick a pass_date."
	MsgDate      = "Please pick a date."
	MsgDateValue = "pass_date must be a YYYY-MM-DD date."
	MsgName      = "Name is required"
	MsgSelection = "Select at least one request"
)

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

// Empty reports whether no field failed.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Err converts the field map to a validation error, or nil when empty.
func (f FieldErrors) Err() error {
	if f.Empty() {
		return nil
	}
	return appErrors.WithFields(appErrors.ErrValidation, "invalid payload", f)
}

// Validator checks request and batch forms.
type Validator struct {
	validate *validator.Validate
}

// New builds a validator with the custom tags registered.
func New() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("its", func(fl validator.FieldLevel) bool {
		return ValidITS(fl.Field().String())
	})
	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	return &Validator{validate: validate}
}

// ValidITS reports whether its is exactly eight decimal digits.
func ValidITS(its string) bool {
	return itsPattern.MatchString(its)
}

// Request validates a create or edit form. The type-specific rules are picked
// by the payload variant the form's type selects.
func (v *Validator) Request(form dto.RequestForm, mode Mode) FieldErrors {
	errs := FieldErrors{}
	if err := v.validate.Struct(form); err != nil {
		for _, fe := range fieldErrors(err) {
			switch fe.Field() {
			case "its":
				errs["its"] = MsgITS
			case "type":
				errs["type"] = MsgType
			}
		}
	}

	switch p := form.Payload().(type) {
	case models.CityChange:
		if p.City <= 0 {
			errs["city"] = MsgCity
		}
	case models.ZoneChange:
		if p.Zone <= 0 {
			errs["zone"] = MsgZone
		}
	case models.PassRequest:
		if !p.Toggle.Valid() {
			errs["toggle"] = MsgToggle
		}
		switch {
		case strings.TrimSpace(p.PassDate) == "":
			if mode == ModeEdit {
				errs["pass_date"] = MsgDate
			} else {
				errs["pass_date"] = MsgPassDate
			}
		case !validDate(p.PassDate):
			errs["pass_date"] = MsgDateValue
		}
	case models.OtherPayload:
	}
	return errs
}

// Batch validates a batch create or edit form.
func (v *Validator) Batch(form dto.BatchForm) FieldErrors {
	errs := FieldErrors{}
	if err := v.validate.Struct(form); err != nil {
		for _, fe := range fieldErrors(err) {
			switch fe.Field() {
			case "name":
				errs["name"] = MsgName
			case "request_ids":
				errs["request_ids"] = MsgSelection
			}
		}
	}
	return errs
}

func fieldErrors(err error) validator.ValidationErrors {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	return verrs
}

func validDate(raw string) bool {
	_, err := time.Parse(models.PassDateLayout, raw)
	return err == nil
}
