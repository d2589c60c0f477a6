package schema

import "time"

// Entitlement represents the entitlements table - units a buyer holds for a SKU
type Entitlement struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Buyer string `gorm:"column:buyer;not null;type:text;uniqueIndex:idx_entitlements_buyer_sku,priority:1"`
	SkuID string `gorm:"column:sku_id;not null;type:text;uniqueIndex:idx_entitlements_buyer_sku,priority:2"`
	// UnitsRemaining is decremented by consumers outside the pipeline
	UnitsRemaining int64 `gorm:"column:units_remaining;not null"`
	// UnitsPurchased only ever grows
	UnitsPurchased   int64     `gorm:"column:units_purchased;not null"`
	FirstPurchasedAt time.Time `gorm:"column:first_purchased_at;not null;type:timestamptz"`
	LastPurchasedAt  time.Time `gorm:"column:last_purchased_at;not null;type:timestamptz"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Entitlement model
func (Entitlement) TableName() string {
	return "entitlements"
}
