package dto

// CustomerRequest creates or updates a customer.
type CustomerRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	CompanyName string `json:"companyName" validate:"max=200"`
	Phone       string `json:"phone" validate:"max=30"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Address     string `json:"address" validate:"max=500"`
}
