package credentials

import "strings"

type lookupType int

const (
	lookupNone lookupType = iota
	lookupEmail
	lookupNumber
)

// Lookup identifies whose record to fetch. Construct with ByEmail or
// ByNumber; the wire payload carries exactly the one corresponding
// field, never both.
type Lookup struct {
	typ   lookupType
	value string
}

// ByEmail looks a record up by the owning user's email.
func ByEmail(email string) Lookup {
	return Lookup{typ: lookupEmail, value: email}
}

// ByNumber looks a record up by its own number.
func ByNumber(number string) Lookup {
	return Lookup{typ: lookupNumber, value: number}
}

// ParseLookup applies the app's legacy heuristic to raw user input:
// anything containing '@' is treated as an email, everything else as a
// record number. Callers that know the identifier type should construct
// the Lookup directly.
func ParseLookup(s string) Lookup {
	s = strings.TrimSpace(s)
	if s == "" {
		return Lookup{}
	}
	if strings.Contains(s, "@") {
		return ByEmail(s)
	}
	return ByNumber(s)
}

// IsZero reports whether the lookup is unset.
func (l Lookup) IsZero() bool {
	return l.typ == lookupNone
}

// IsEmail reports whether the lookup is by email.
func (l Lookup) IsEmail() bool {
	return l.typ == lookupEmail
}

func (l Lookup) String() string {
	return l.value
}

// payload builds the single-field request body for a get endpoint.
func (l Lookup) payload(numberField string) map[string]string {
	switch l.typ {
	case lookupEmail:
		return map[string]string{"email": l.value}
	case lookupNumber:
		return map[string]string{numberField: l.value}
	}
	return nil
}
