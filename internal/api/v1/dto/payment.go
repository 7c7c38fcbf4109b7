package dto

type PaymentCreateDTO struct {
	PackageID           string `json:"package_id" validate:"required,uuid"`
	ClientTransactionID string `json:"client_transaction_id" validate:"required,max=128"`
	AmountCents         *int64 `json:"amount_cents,omitempty" validate:"omitempty,gte=0"`
}

type PaymentStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed" enum:"pending,completed,failed"`
}
