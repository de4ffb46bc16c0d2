package layouts

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvload/internal/core"
)

func init() {
	registerContacts()
}

// Contact is the typed record of the contacts layout.
type Contact struct {
	ID        uuid.UUID `csv:"Id"`
	FirstName string    `csv:"First Name"`
	LastName  string    `csv:"Last Name"`
	Email     string    `csv:"Email"`
	Phone     string    `csv:"Phone"`
	State     string    `csv:"State"`
	Status    string    `csv:"Status" fallback:"active"`
	Age       int       `csv:"Age" fallback:"0"`
	Joined    time.Time `csv:"Joined"`
	Score     float64   `csv:"Score"`
}

// ValidateField checks one member right after it is bound.
func (c *Contact) ValidateField(name string) error {
	if strings.EqualFold(name, "Email") && c.Email != "" && !strings.Contains(c.Email, "@") {
		return core.ValidationError{Field: name, Value: c.Email, Message: "not an email address"}
	}
	return nil
}

// Validate checks the whole record.
func (c *Contact) Validate() error {
	var errs core.ValidationErrors
	if c.FirstName == "" && c.LastName == "" {
		errs = append(errs, core.ValidationError{Message: "first or last name is required"})
	}
	if !c.Joined.IsZero() && c.Joined.After(time.Now()) {
		errs = append(errs, core.ValidationError{Field: "Joined", Value: c.Joined.Format(time.DateOnly), Message: "is in the future"})
	}
	return errs.Err()
}

var errBadStatus = errors.New("unknown contact status")

func registerContacts() {
	core.Register(core.Layout{
		Key:         "contacts",
		Group:       "CRM",
		Label:       "Contacts",
		Description: "Contact export with a header line, bound into typed records",
		Config: func() *core.Config {
			cfg := core.NewConfig()
			cfg.HasHeader = true
			cfg.ColumnCountStrict = false
			cfg.IgnoreEmptyLine = true
			cfg.ValidationMode = core.MemberLevel | core.ObjectLevel
			cfg.ErrorMode = core.ReportAndContinue

			cfg.AddField("Id", 0, core.FieldUUID).Validate = core.Required()
			cfg.AddField("First Name", 0, core.FieldText).Size = 64
			cfg.AddField("Last Name", 0, core.FieldText).Size = 64
			cfg.AddField("Email", 0, core.FieldText).Normalizer = NormalizeEmail
			cfg.AddField("Phone", 0, core.FieldText).Normalizer = NormalizePhone
			cfg.AddField("State", 0, core.FieldText).Normalizer = NormalizeUsState

			status := cfg.AddField("Status", 0, core.FieldEnum)
			status.EnumValues = []string{"active", "inactive", "lead"}
			status.ErrorMode = core.IgnoreAndContinue

			age := cfg.AddField("Age", 0, core.FieldInt)
			age.ErrorMode = core.IgnoreAndContinue
			age.Validate = core.Between(0, 150)

			cfg.AddField("Joined", 0, core.FieldDate)
			cfg.AddField("Score", 0, core.FieldFloat).IgnoreMode = core.IgnoreWhiteSpace
			return cfg
		},
		Options: func() []core.Option {
			return []core.Option{core.WithRecordType[Contact]()}
		},
	})
}
