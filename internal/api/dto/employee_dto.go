package dto

import (
	"strconv"
	"strings"
)

// Field error messages shown next to the update form.
const (
	MsgDependentsRequired = "扶養人数を入力してください"
	MsgDependentsInvalid  = "扶養人数は0以上の数値で入力してください"
	MsgIDInvalid          = "従業員IDが不正です"
)

// FieldErrors maps a form field name to its messages.
type FieldErrors map[string][]string

// Add appends a message for field.
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// OK reports whether no field failed validation.
func (fe FieldErrors) OK() bool {
	return len(fe) == 0
}

// UpdateEmployeeForm is the raw form posted to /employee/update.
type UpdateEmployeeForm struct {
	ID              string `form:"id"`
	DependentsCount string `form:"dependentsCount"`
}

// UpdateEmployeeInput is a validated update request.
type UpdateEmployeeInput struct {
	ID              int
	DependentsCount int
}

// ParseID parses the employee id of the form.
func (f UpdateEmployeeForm) ParseID() (int, bool) {
	return ParseID(f.ID)
}

// Validate checks every field. The input is only meaningful when errs.OK().
func (f UpdateEmployeeForm) Validate() (input UpdateEmployeeInput, errs FieldErrors) {
	errs = FieldErrors{}

	id, ok := f.ParseID()
	if !ok {
		errs.Add("id", MsgIDInvalid)
	}
	input.ID = id

	raw := strings.TrimSpace(f.DependentsCount)
	switch {
	case raw == "":
		errs.Add("dependentsCount", MsgDependentsRequired)
	default:
		count, err := strconv.Atoi(raw)
		if err != nil || count < 0 || strings.HasPrefix(raw, "+") {
			errs.Add("dependentsCount", MsgDependentsInvalid)
		}
		input.DependentsCount = count
	}
	return input, errs
}

// ParseID parses an integer employee id. Any integer is well formed; ids
// without a row are left for the store to report as not found.
func ParseID(raw string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return id, true
}
