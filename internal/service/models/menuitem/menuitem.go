package menuitem

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyName = errors.New("menu item name must not be empty")

// MenuItem represents a catalog entry shared by all devices of a tenant.
// It carries the same synchronization envelope as an order: version counter,
// origin device, update timestamp and tombstone flag.
type MenuItem struct {
	ID                 uuid.UUID `json:"id"`
	TenantID           uuid.UUID `json:"tenantId"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	PriceCents         int64     `json:"priceCents"`
	IsAvailable        bool      `json:"isAvailable"`
	IsVeg              bool      `json:"isVeg"`
	PreparationTimeMin int       `json:"preparationTimeMin"`
	Version            int64     `json:"version"`
	OriginDeviceID     string    `json:"originDeviceId"`
	IsDeleted          bool      `json:"isDeleted"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Payload is the device-visible snapshot of a menu item.
type Payload struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	PriceCents         int64  `json:"priceCents"`
	IsAvailable        bool   `json:"isAvailable"`
	IsVeg              bool   `json:"isVeg"`
	PreparationTimeMin int    `json:"preparationTimeMin"`
}

// Validate checks the payload fields a device must always supply.
func (p *Payload) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}

	return nil
}

// ApplyPayload overwrites the item's device-editable fields.
func (m *MenuItem) ApplyPayload(p Payload) {
	m.Name = p.Name
	m.Description = p.Description
	m.PriceCents = p.PriceCents
	m.IsAvailable = p.IsAvailable
	m.IsVeg = p.IsVeg
	m.PreparationTimeMin = p.PreparationTimeMin
}

// ToPayload projects the item onto its device-visible snapshot.
func (m *MenuItem) ToPayload() Payload {
	return Payload{
		Name:               m.Name,
		Description:        m.Description,
		PriceCents:         m.PriceCents,
		IsAvailable:        m.IsAvailable,
		IsVeg:              m.IsVeg,
		PreparationTimeMin: m.PreparationTimeMin,
	}
}
