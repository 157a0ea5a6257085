package domain

import "time"

// Contract is a priced agreement owned by exactly one user.
// Once Cancelled is set it never reverts.
type Contract struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CompanyName string    `json:"companyName"`
	YearlyPrice float64   `json:"yearlyPrice"`
	Content     string    `json:"content,omitempty"`
	Cancelled   bool      `json:"cancelled"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ContractPatch holds the optional fields of a partial update. Nil fields are left untouched.
type ContractPatch struct {
	Title       *string
	CompanyName *string
	YearlyPrice *float64
	Content     *string
}

// Empty reports whether the patch changes nothing.
func (p ContractPatch) Empty() bool {
	return p.Title == nil && p.CompanyName == nil && p.YearlyPrice == nil && p.Content == nil
}
