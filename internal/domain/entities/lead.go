package entities

import "time"

// Lead is a sales contact captured from the site's quote form
type Lead struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email,omitempty" db:"email"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	City        string    `json:"city,omitempty" db:"city"`
	State       string    `json:"state,omitempty" db:"state"`
	MonthlyBill float64   `json:"monthly_bill" db:"monthly_bill"` // average electricity bill in BRL
	Message     string    `json:"message,omitempty" db:"message"`
	Source      string    `json:"source" db:"source"` // page or campaign the lead came from
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// LeadInput is the untrusted payload submitted by the lead form
type LeadInput struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	MonthlyBill float64 `json:"monthly_bill"`
	Message     string  `json:"message"`
	Source      string  `json:"source"`
}

// DefaultLeadSource is recorded when the form does not say where it was submitted from
const DefaultLeadSource = "website"
