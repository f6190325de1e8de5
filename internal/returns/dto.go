package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ReturnLine asks to send back quantity units of one order item.
type ReturnLine struct {
	OrderItemID uuid.UUID
	Quantity    int
}

type ReturnItemDTO struct {
	ID          uuid.UUID `json:"id"`
	OrderItemID uuid.UUID `json:"order_item_id"`
	Quantity    int       `json:"quantity"`
}

// ReturnDTO is the API view of a return with its order context.
type ReturnDTO struct {
	ID            uuid.UUID          `json:"id"`
	OrderID       uuid.UUID          `json:"order_id"`
	Status        enums.ReturnStatus `json:"status"`
	Reason        string             `json:"reason"`
	RefundAmount  *decimal.Decimal   `json:"refund_amount,omitempty"`
	OrderTotal    *decimal.Decimal   `json:"order_total,omitempty"`
	CustomerEmail *string            `json:"customer_email,omitempty"`
	Items         []ReturnItemDTO    `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type orderSummary struct {
	OrderID       uuid.UUID
	TotalAmount   decimal.Decimal
	UserEmail     *string
	CustomerEmail *string
}

func mapReturn(ret models.Return, summary *orderSummary) ReturnDTO {
	dto := ReturnDTO{
		ID:           ret.ID,
		OrderID:      ret.OrderID,
		Status:       ret.Status,
		Reason:       ret.Reason,
		RefundAmount: ret.RefundAmount,
		Items:        make([]ReturnItemDTO, 0, len(ret.Items)),
		CreatedAt:    ret.CreatedAt,
		UpdatedAt:    ret.UpdatedAt,
	}
	for _, item := range ret.Items {
		dto.Items = append(dto.Items, ReturnItemDTO{
			ID:          item.ID,
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
		})
	}
	if summary != nil {
		total := summary.TotalAmount
		dto.OrderTotal = &total
		dto.CustomerEmail = summary.UserEmail
		if dto.CustomerEmail == nil {
			dto.CustomerEmail = summary.CustomerEmail
		}
	}
	return dto
}
