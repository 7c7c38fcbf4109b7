package operation

import (
	"github.com/erfajc97/anko-back/internal/api/v1/dto"
	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/service"
)

type CreatePaymentInput struct {
	Body dto.PaymentCreateDTO `json:"body"`
}

type PaymentOutput struct {
	Body model.PaymentTransaction `json:"body"`
}

type ListPendingPaymentsInput struct{}

type ListPaymentsOutput struct {
	Body []model.PaymentTransaction `json:"body"`
}

type GetPaymentInput struct {
	ClientTransactionID string `path:"clientTransactionId" doc:"Client transaction ID"`
}

type UpdatePaymentStatusInput struct {
	ClientTransactionID string               `path:"clientTransactionId" doc:"Client transaction ID"`
	Body                dto.PaymentStatusDTO `json:"body"`
}

type PaymentStatusOutput struct {
	Body service.PaymentStatusResult `json:"body"`
}
