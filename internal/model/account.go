// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. Go favours composition over
// inheritance, which is why Account embeds a Profile instead of extending it.
package model

// Gender is the closed set of genders an account can declare.
// Only GenderMale changes behaviour: male accounts carry no Measurements.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// RequiresMeasurements reports whether an account of this gender must supply
// a measurement set at creation.
func (g Gender) RequiresMeasurements() bool {
	return g != GenderMale
}

// Measurements is the optional profile variant present only on non-male
// accounts. Values are kept as entered (e.g. "34"); they are display data and
// never used in arithmetic.
type Measurements struct {
	Bust    string `json:"bust"`
	Waist   string `json:"waist"`
	Hips    string `json:"hips"`
	BraSize string `json:"braSize"`
}

// Profile holds the descriptive attributes of an account.
//
// WHY A POINTER FOR Measurements?
// A nil pointer is the "male" variant of the profile: there is no measurement
// set at all, rather than a set of empty strings. `omitempty` keeps the key out
// of the persisted JSON for that variant.
type Profile struct {
	Name         string        `json:"name"`
	Gender       Gender        `json:"gender"`
	Age          int           `json:"age"`
	Measurements *Measurements `json:"measurements,omitempty"`
}

// Account is a registered user.
//
// Username is unique and case-sensitive. PasswordHash is a one-way digest and
// is never returned to clients: use Summary() for anything that leaves the
// process.
//
// EMBEDDING:
// Profile is embedded, so its fields are promoted (account.Name works) and
// encoding/json flattens them into the same JSON object as ID and Username.
type Account struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	Profile
}

// AccountSummary is the public projection of an Account.
type AccountSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Profile
}

// Summary strips the password digest.
func (a Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, Username: a.Username, Profile: a.Profile}
}

// Identity is the denormalized projection of an Account stored as the
// logged-in session.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Identity returns the session projection of the account.
func (a Account) Identity() Identity {
	return Identity{ID: a.ID, Username: a.Username, Name: a.Name}
}
