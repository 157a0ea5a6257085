package handler

import (
	"github.com/holycode/contracts-api/internal/core/domain"
)

const headerIdempotencyKey = "Idempotency-Key"

// --- Request / Response types ---

type createContractRequest struct {
	Title       string  `json:"title"       validate:"required"`
	CompanyName string  `json:"companyName" validate:"required"`
	YearlyPrice float64 `json:"yearlyPrice" validate:"required,gt=0"`
	Content     string  `json:"content"`
}

// updateContractRequest is a partial update: absent fields stay untouched.
type updateContractRequest struct {
	Title       *string  `json:"title"`
	CompanyName *string  `json:"companyName"`
	YearlyPrice *float64 `json:"yearlyPrice"`
	Content     *string  `json:"content"`
}

func (r updateContractRequest) toPatch() domain.ContractPatch {
	return domain.ContractPatch{
		Title:       r.Title,
		CompanyName: r.CompanyName,
		YearlyPrice: r.YearlyPrice,
		Content:     r.Content,
	}
}

type listContractsResponse struct {
	Count     int64              `json:"count"`
	Contracts []*domain.Contract `json:"contracts"`
}

type updateContractResponse struct {
	Message string           `json:"message"`
	Results *domain.Contract `json:"results"`
}
