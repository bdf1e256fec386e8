package domain

import "time"

// Employee is the single record kept by the directory.
type Employee struct {
	ID              int
	Name            string
	Image           string
	Gender          string
	HireDate        time.Time
	MailAddress     string
	ZipCode         string
	Address         string
	Telephone       string
	Salary          int
	Characteristics string
	DependentsCount int
}
