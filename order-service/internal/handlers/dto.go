package handlers

import (
	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/domain"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
)

type OrderResponse struct {
	types.Order
	Settled bool `json:"settled"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type PaginationResponse struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

type OrderListResponse struct {
	Orders     []OrderResponse    `json:"orders"`
	Pagination PaginationResponse `json:"pagination"`
}

func mapOrder(order *domain.OrderAggregate) OrderResponse {
	return OrderResponse{
		Order:   *order.Order,
		Settled: order.Status.IsTerminal(),
	}
}
