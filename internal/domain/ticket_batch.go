package domain

import "time"

// TicketBatch is one tier of event tickets ("lote").
type TicketBatch struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	Name          string    `json:"name"`
	DisplayOrder  int       `json:"display_order"`
	TotalQuantity int       `json:"total_quantity"`
	SoldQuantity  int       `json:"sold_quantity"`
	IsActive      bool      `json:"is_active"`
	AutoAdvance   bool      `json:"auto_advance"`
}

// IsSoldOut returns true once every ticket in the tier is sold.
func (b *TicketBatch) IsSoldOut() bool {
	return b.SoldQuantity >= b.TotalQuantity
}

// ShouldAdvance reports whether reaching this state must hand sales over to the next tier.
func (b *TicketBatch) ShouldAdvance() bool {
	return b.AutoAdvance && b.IsSoldOut()
}

// BatchIncrement is the result of one atomic sold_quantity increment.
type BatchIncrement struct {
	Batch    TicketBatch
	Advanced bool    // the batch sold out and was deactivated by this increment
	NextID   *string // batch activated in its place, nil when no later tier exists
}
