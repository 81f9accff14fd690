package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted transaction date format.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// Balances holds one amount per tracked account. Depending on context it
	// is a running balance, a yearly delta or a single transaction.
	Balances struct {
		Pension int64
		ISA     int64
		General int64
	}

	// PlanEntry is the target profile for one calendar year.
	PlanEntry struct {
		ID                  int64
		Year                int
		Age                 int
		Pension             int64
		ISA                 int64
		General             int64
		Total               int64
		HealthInsuranceNote string
		TaxNote             string
		StrategyNote        string
	}

	// Transaction is a recorded contribution (or withdrawal, when negative).
	Transaction struct {
		ID      int64
		Date    Date
		Amounts Balances
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidAge         = errors.New("invalid age")
	ErrNegativeTarget     = errors.New("plan targets must not be negative")
	ErrEmptyUsername      = errors.New("empty username")
	ErrEmptyPassword      = errors.New("empty password")
	ErrUsernameTooLong    = errors.New("username too long")
	ErrWeakPassword       = errors.New("password too short")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateYear      = errors.New("a plan entry for this year already exists")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrProtectedUser      = errors.New("user cannot be deleted")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Anything else, including the empty
// string, is rejected with ErrInvalidDate.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	if y := d.Year(); y < 1900 || y > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidDate, y)
	}
	return nil
}

// Total returns the sum of the three accounts.
func (b Balances) Total() int64 {
	return b.Pension + b.ISA + b.General
}

// Add returns the account-wise sum of b and o.
func (b Balances) Add(o Balances) Balances {
	return Balances{
		Pension: b.Pension + o.Pension,
		ISA:     b.ISA + o.ISA,
		General: b.General + o.General,
	}
}

func (b Balances) IsZero() bool {
	return b == Balances{}
}

func (t Transaction) Validate() error {
	return t.Date.Validate()
}

// Targets returns the per-account targets of the entry.
func (p PlanEntry) Targets() Balances {
	return Balances{Pension: p.Pension, ISA: p.ISA, General: p.General}
}

// Normalize recomputes Total from the three targets and trims the notes.
func (p PlanEntry) Normalize() PlanEntry {
	p.Total = p.Pension + p.ISA + p.General
	p.HealthInsuranceNote = strings.TrimSpace(p.HealthInsuranceNote)
	p.TaxNote = strings.TrimSpace(p.TaxNote)
	p.StrategyNote = strings.TrimSpace(p.StrategyNote)
	return p
}

func (p PlanEntry) Validate() error {
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("%w: %d", ErrInvalidYear, p.Year)
	}
	if p.Age < 0 || p.Age > 150 {
		return fmt.Errorf("%w: %d", ErrInvalidAge, p.Age)
	}
	if p.Pension < 0 || p.ISA < 0 || p.General < 0 {
		return ErrNegativeTarget
	}
	if p.Total != p.Pension+p.ISA+p.General {
		return fmt.Errorf("plan total %d does not match targets sum %d", p.Total, p.Pension+p.ISA+p.General)
	}
	return nil
}

// MaxUsernameLength bounds a login name in bytes.
const MaxUsernameLength = 64

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if len(u.Username) > MaxUsernameLength {
		return fmt.Errorf("%w (max %d characters)", ErrUsernameTooLong, MaxUsernameLength)
	}
	return nil
}
