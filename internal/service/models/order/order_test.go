package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadValidate(t *testing.T) {
	valid := Payload{
		OrderNumber: "ORD-001",
		Status:      StatusPending,
		Type:        TypeDineIn,
	}
	require.NoError(t, valid.Validate())

	badStatus := valid
	badStatus.Status = "SHIPPED"
	assert.ErrorIs(t, badStatus.Validate(), ErrInvalidStatus)

	badType := valid
	badType.Type = "DRIVE_THROUGH"
	assert.ErrorIs(t, badType.Validate(), ErrInvalidType)
}

func TestApplyPayloadKeepsEnvelope(t *testing.T) {
	o := Order{
		Version:        3,
		OriginDeviceID: "dev-a",
	}
	o.ApplyPayload(Payload{
		OrderNumber: "ORD-002",
		Status:      StatusConfirmed,
		Type:        TypeTakeaway,
		TotalCents:  1500,
	})

	assert.Equal(t, "ORD-002", o.OrderNumber)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, int64(1500), o.TotalCents)
	assert.Equal(t, int64(3), o.Version)
	assert.Equal(t, "dev-a", o.OriginDeviceID)
}
