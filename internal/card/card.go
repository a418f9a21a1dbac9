package card

import (
	"errors"
	"fmt"

	"cardterm/internal/theme"
)

// Field identifies one editable attribute of a card.
type Field string

const (
	FieldName    Field = "name"
	FieldTitle   Field = "title"
	FieldCompany Field = "company"
	FieldPhone   Field = "phone"
	FieldEmail   Field = "email"
	FieldWebsite Field = "website"
	FieldAddress Field = "address"
	FieldTheme   Field = "theme"
)

// ErrUnknownField indicates an identifier outside the card's field set.
var ErrUnknownField = errors.New("unknown card field")

// Card is the editable content behind one business card.
type Card struct {
	Name    string `yaml:"name" json:"name"`
	Title   string `yaml:"title" json:"title"`
	Company string `yaml:"company" json:"company"`
	Phone   string `yaml:"phone" json:"phone"`
	Email   string `yaml:"email" json:"email"`
	Website string `yaml:"website" json:"website"`
	Address string `yaml:"address" json:"address"`
	Theme   string `yaml:"theme" json:"theme"`
}

type fieldInfo struct {
	field       Field
	label       string
	placeholder string
}

var fields = [...]fieldInfo{
	{FieldName, "Full Name", "Enter your full name"},
	{FieldTitle, "Job Title", "Enter your job title"},
	{FieldCompany, "Company", "Enter company name"},
	{FieldPhone, "Phone Number", "Enter phone number"},
	{FieldEmail, "Email Address", "Enter email address"},
	{FieldWebsite, "Website", "Enter website URL"},
	{FieldAddress, "Address", "Enter business address"},
	{FieldTheme, "Theme", "Select a theme"},
}

// New returns a card filled with sample values and the default theme.
func New() Card {
	return Card{
		Name:    "John Doe",
		Title:   "Software Engineer",
		Company: "Tech Solutions Inc.",
		Phone:   "+1 (555) 123-4567",
		Email:   "john.doe@example.com",
		Website: "www.johndoe.com",
		Address: "123 Tech Street, Silicon Valley, CA",
		Theme:   theme.DefaultID,
	}
}

// Fields lists every field in form order.
func Fields() []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.field
	}
	return out
}

// ParseField maps a field name to its identifier.
func ParseField(name string) (Field, error) {
	for _, f := range fields {
		if string(f.field) == name {
			return f.field, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Label is the human readable form label.
func (f Field) Label() string {
	for _, info := range fields {
		if info.field == f {
			return info.label
		}
	}
	return string(f)
}

// Placeholder is the hint shown in an empty input.
func (f Field) Placeholder() string {
	for _, info := range fields {
		if info.field == f {
			return info.placeholder
		}
	}
	return ""
}

// Update replaces exactly one field. Values are stored verbatim, including
// empty strings and theme identifiers the registry does not know.
func (c *Card) Update(field Field, value string) error {
	ptr := c.slot(field)
	if ptr == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	*ptr = value
	return nil
}

// Value returns the current value of a field.
func (c Card) Value(field Field) (string, error) {
	ptr := c.slot(field)
	if ptr == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return *ptr, nil
}

func (c *Card) slot(field Field) *string {
	switch field {
	case FieldName:
		return &c.Name
	case FieldTitle:
		return &c.Title
	case FieldCompany:
		return &c.Company
	case FieldPhone:
		return &c.Phone
	case FieldEmail:
		return &c.Email
	case FieldWebsite:
		return &c.Website
	case FieldAddress:
		return &c.Address
	case FieldTheme:
		return &c.Theme
	default:
		return nil
	}
}
