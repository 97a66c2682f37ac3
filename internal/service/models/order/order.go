package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusServed    Status = "SERVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Type is the fulfilment channel of an order.
type Type string

const (
	TypeDineIn   Type = "DINE_IN"
	TypeTakeaway Type = "TAKEAWAY"
	TypeDelivery Type = "DELIVERY"
	TypeQROrder  Type = "QR_ORDER"
)

var (
	ErrInvalidStatus = errors.New("invalid order status")
	ErrInvalidType   = errors.New("invalid order type")
)

func (s Status) String() string { return string(s) }

func (t Type) String() string { return string(t) }

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusServed, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeDineIn, TypeTakeaway, TypeDelivery, TypeQROrder:
		return Type(s), nil
	default:
		return "", ErrInvalidType
	}
}

// Order represents an order in the system. Version, OriginDeviceID,
// UpdatedAt and IsDeleted form the synchronization envelope: the version
// is incremented by exactly one on every accepted mutation, and deleted
// orders are kept as tombstones so the deletion still propagates to
// devices that have not seen it.
type Order struct {
	ID                 uuid.UUID `json:"id"`
	TenantID           uuid.UUID `json:"tenantId"`
	OrderNumber        string    `json:"orderNumber"`
	CustomerName       string    `json:"customerName"`
	CustomerPhone      string    `json:"customerPhone"`
	Status             Status    `json:"status"`
	Type               Type      `json:"type"`
	SubtotalCents      int64     `json:"subtotalCents"`
	TaxCents           int64     `json:"taxCents"`
	ServiceChargeCents int64     `json:"serviceChargeCents"`
	DiscountCents      int64     `json:"discountCents"`
	TotalCents         int64     `json:"totalCents"`
	Notes              string    `json:"notes"`
	Version            int64     `json:"version"`
	OriginDeviceID     string    `json:"originDeviceId"`
	IsDeleted          bool      `json:"isDeleted"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Payload is the device-visible snapshot of an order: the fields a client
// may set on push and receives back on delta pull.
type Payload struct {
	OrderNumber        string `json:"orderNumber"`
	CustomerName       string `json:"customerName"`
	CustomerPhone      string `json:"customerPhone"`
	Status             Status `json:"status"`
	Type               Type   `json:"type"`
	SubtotalCents      int64  `json:"subtotalCents"`
	TaxCents           int64  `json:"taxCents"`
	ServiceChargeCents int64  `json:"serviceChargeCents"`
	DiscountCents      int64  `json:"discountCents"`
	TotalCents         int64  `json:"totalCents"`
	Notes              string `json:"notes"`
}

// Validate checks the enum fields of a payload.
func (p *Payload) Validate() error {
	if _, err := ParseStatus(p.Status.String()); err != nil {
		return err
	}
	if _, err := ParseType(p.Type.String()); err != nil {
		return err
	}

	return nil
}

// ApplyPayload overwrites the order's device-editable fields.
func (o *Order) ApplyPayload(p Payload) {
	o.OrderNumber = p.OrderNumber
	o.CustomerName = p.CustomerName
	o.CustomerPhone = p.CustomerPhone
	o.Status = p.Status
	o.Type = p.Type
	o.SubtotalCents = p.SubtotalCents
	o.TaxCents = p.TaxCents
	o.ServiceChargeCents = p.ServiceChargeCents
	o.DiscountCents = p.DiscountCents
	o.TotalCents = p.TotalCents
	o.Notes = p.Notes
}

// ToPayload projects the order onto its device-visible snapshot.
func (o *Order) ToPayload() Payload {
	return Payload{
		OrderNumber:        o.OrderNumber,
		CustomerName:       o.CustomerName,
		CustomerPhone:      o.CustomerPhone,
		Status:             o.Status,
		Type:               o.Type,
		SubtotalCents:      o.SubtotalCents,
		TaxCents:           o.TaxCents,
		ServiceChargeCents: o.ServiceChargeCents,
		DiscountCents:      o.DiscountCents,
		TotalCents:         o.TotalCents,
		Notes:              o.Notes,
	}
}
