package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

func TestRequestFormNormalizedClearsForeignSlots(t *testing.T) {
	city, zone := int64(4), int64(9)
	toggle := models.PassToggleWaaz
	date := "2024-05-01"
	form := RequestForm{ITS: "12345678", Type: models.RequestTypeChangeZone, City: &city, Zone: &zone, Toggle: &toggle, PassDate: &date}

	got := form.Normalized()
	assert.Nil(t, got.City)
	assert.Nil(t, got.Toggle)
	assert.Nil(t, got.PassDate)
	if assert.NotNil(t, got.Zone) {
		assert.Equal(t, int64(9), *got.Zone)
	}
}

func TestRequestFormPayloadOtherType(t *testing.T) {
	form := RequestForm{ITS: "12345678", Type: "custom_code"}
	assert.Equal(t, models.OtherPayload{}, form.Payload())
}

func TestBatchFormDedupedIDs(t *testing.T) {
	form := BatchForm{RequestIDs: []int64{3, 1, 3, 2, 1}}
	assert.Equal(t, []int64{3, 1, 2}, form.DedupedIDs())
}
