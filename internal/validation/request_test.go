package validation

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func togglePtr(v models.PassToggle) *models.PassToggle { return &v }

func TestValidITS(t *testing.T) {
	cases := map[string]bool{
		"12345678":  true,
		"00000000":  true,
		"1234567":   false,
		"123456789": false,
		"1234567a":  false,
		"":          false,
		" 1234567":  false,
	}
	for input, want := range cases {
		assert.Equal(t, want, ValidITS(input), input)
	}
}

func TestRequestITSRejected(t *testing.T) {
	v := New()
	for _, its := range []string{"1234567", "123456789", "1234567a"} {
		errs := v.Request(dto.RequestForm{ITS: its, Type: "other_code"}, ModeCreate)
		assert.Equal(t, MsgITS, errs["its"], its)
	}
}

func TestRequestPassRequiresToggleAndDate(t *testing.T) {
	v := New()
	base := dto.RequestForm{ITS: "12345678", Type: models.RequestTypePass, City: int64Ptr(1), Zone: int64Ptr(2)}

	noToggle := base
	noToggle.PassDate = strPtr("2024-05-01")
	errs := v.Request(noToggle, ModeCreate)
	assert.Equal(t, FieldErrors{"toggle": MsgToggle}, errs)

	noDate := base
	noDate.Toggle = togglePtr(models.PassToggleMajlis)
	errs = v.Request(noDate, ModeCreate)
	assert.Equal(t, FieldErrors{"pass_date": MsgPassDate}, errs)

	errs = v.Request(noDate, ModeEdit)
	assert.Equal(t, FieldErrors{"pass_date": MsgDate}, errs)

	bad := base
	bad.Toggle = togglePtr("dinner")
	bad.PassDate = strPtr("01/05/2024")
	errs = v.Request(bad, ModeCreate)
	assert.Equal(t, MsgToggle, errs["toggle"])
	assert.Equal(t, MsgDateValue, errs["pass_date"])

	ok := base
	ok.Toggle = togglePtr(models.PassToggleBethak)
	ok.PassDate = strPtr("2024-05-01")
	assert.True(t, v.Request(ok, ModeCreate).Empty())
}

func TestRequestCityAndZoneRequired(t *testing.T) {
	v := New()

	errs := v.Request(dto.RequestForm{ITS: "12345678", Type: models.RequestTypeChangeCity, Zone: int64Ptr(3)}, ModeCreate)
	assert.Equal(t, FieldErrors{"city": MsgCity}, errs)

	errs = v.Request(dto.RequestForm{ITS: "12345678", Type: models.RequestTypeChangeZone, City: int64Ptr(3)}, ModeCreate)
	assert.Equal(t, FieldErrors{"zone": MsgZone}, errs)

	assert.True(t, v.Request(dto.RequestForm{ITS: "12345678", Type: models.RequestTypeChangeCity, City: int64Ptr(3)}, ModeCreate).Empty())
}

func TestRequestOtherTypeNeedsNothingExtra(t *testing.T) {
	v := New()
	errs := v.Request(dto.RequestForm{ITS: "12345678", Type: "transfer_request"}, ModeCreate)
	assert.True(t, errs.Empty())
}

func TestRequestMissingType(t *testing.T) {
	v := New()
	errs := v.Request(dto.RequestForm{ITS: "12345678"}, ModeCreate)
	assert.Equal(t, FieldErrors{"type": MsgType}, errs)
}

func TestBatchValidation(t *testing.T) {
	v := New()

	errs := v.Batch(dto.BatchForm{Name: "   ", RequestIDs: nil})
	assert.Equal(t, FieldErrors{"name": MsgName, "request_ids": MsgSelection}, errs)

	assert.True(t, v.Batch(dto.BatchForm{Name: "Morning Run", RequestIDs: []int64{1, 3}}).Empty())
}

func TestFieldErrorsErr(t *testing.T) {
	assert.NoError(t, FieldErrors{}.Err())

	err := FieldErrors{"city": MsgCity}.Err()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, MsgCity, appErr.Fields["city"])
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
