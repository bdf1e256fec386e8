// Package seed generates deterministic employee rows for local stores and tests.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/repository"
)

var (
	familyNames = []string{"Yamada", "Suzuki", "Tanaka", "Sato", "Takahashi", "Watanabe", "Ito", "Nakamura"}
	givenNames  = []string{"Taro", "Hanako", "Jiro", "Yuki", "Kenta", "Aoi", "Sho", "Mei", "Ren"}
	genders     = []string{"Male", "Female"}
)

// Employees returns n employees whose hire dates are one day apart starting at
// firstHire, so hire-date order equals generation order.
func Employees(n int, firstHire time.Time) []domain.Employee {
	employees := make([]domain.Employee, 0, n)
	for i := 0; i < n; i++ {
		family := familyNames[i%len(familyNames)]
		given := givenNames[i%len(givenNames)]
		employees = append(employees, domain.Employee{
			Name:            fmt.Sprintf("%s %s", family, given),
			Image:           fmt.Sprintf("e%d.png", i+1),
			Gender:          genders[i%len(genders)],
			HireDate:        firstHire.AddDate(0, 0, i),
			MailAddress:     fmt.Sprintf("employee%d@example.com", i+1),
			ZipCode:         fmt.Sprintf("%03d-%04d", 100+i%900, i%10000),
			Address:         fmt.Sprintf("%d-%d Chiyoda, Tokyo", i%9+1, i%20+1),
			Telephone:       fmt.Sprintf("090-%04d-%04d", i%10000, (i*7)%10000),
			Salary:          250000 + (i%10)*10000,
			Characteristics: "Steady and reliable.",
			DependentsCount: i % 4,
		})
	}
	return employees
}

// Insert writes employees through repo, filling in their generated ids.
func Insert(ctx context.Context, repo repository.EmployeeRepository, employees []domain.Employee) error {
	for i := range employees {
		if err := repo.Insert(ctx, &employees[i]); err != nil {
			return fmt.Errorf("insert %s: %w", employees[i].Name, err)
		}
	}
	return nil
}
