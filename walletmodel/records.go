package walletmodel

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a civil date marshalled in the backend's YYYY-MM-DD format.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// DriversLicense is a driver's license credential record.
type DriversLicense struct {
	LicenseNumber  string `json:"license_number"`
	Province       string `json:"province"`
	ExpirationDate Date   `json:"expiration_date"`
}

// HealthCard is a health card credential record.
type HealthCard struct {
	CardNumber     string `json:"card_number"`
	Province       string `json:"province"`
	ExpirationDate Date   `json:"expiration_date"`
}

// TransitPass is a transit pass credential record. Balance is the
// backend's string-encoded decimal.
type TransitPass struct {
	CardNumber     string `json:"card_number"`
	Balance        string `json:"balance"`
	ExpirationDate Date   `json:"expiration_date"`
}
