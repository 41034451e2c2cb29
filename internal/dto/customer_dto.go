package dto

type CustomerFilter struct {
	Search string `form:"search"` // name, partial match — backs the autocomplete UI
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CreateCustomerRequest struct {
	Name  string `json:"name"  validate:"required,min=2"`
	Phone string `json:"phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

type UpdateCustomerRequest struct {
	Name  *string `json:"name"  validate:"omitempty,min=2"`
	Phone *string `json:"phone"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type CustomerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at"`
}

type CustomerListResponse struct {
	Data  []CustomerResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
