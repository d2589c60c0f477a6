package schema

import (
	"time"
)

// Balance represents the balances table - running earnings of a seller
type Balance struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Seller is the lowercased payee address
	Seller string `gorm:"column:seller;not null;type:text;uniqueIndex:idx_balances_seller"`
	// TotalEarnedUSD6 is the sum of all payment amounts (stored as string to support up to 78 digits)
	TotalEarnedUSD6 string `gorm:"column:total_earned_usd6;not null;type:numeric(78,0)"`
	// TotalUnitsSold is the sum of all sold units
	TotalUnitsSold int64 `gorm:"column:total_units_sold;not null"`
	// LastSaleAt is the block timestamp of the latest sale
	LastSaleAt time.Time `gorm:"column:last_sale_at;not null;type:timestamptz"`
	// CreatedAt is the timestamp when this balance was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this balance was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Balance model
func (Balance) TableName() string {
	return "balances"
}
