package domain

import "time"

// CategoryStatus is either StatusActivated or StatusDeactivated.
type CategoryStatus = AccountStatus

// Category groups articles in the public menu.
type Category struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	DisplayOrder int            `json:"display_order"`
	Status       CategoryStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
