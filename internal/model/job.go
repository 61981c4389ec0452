package model

import (
	"fmt"
	"slices"
	"time"
)

// RecipientStatus is one recipient's answer to a job offer.
//
// It is a closed enumeration: UnmarshalText rejects anything else, so a
// corrupted blob fails to load instead of producing an unknown state.
type RecipientStatus string

const (
	StatusPending  RecipientStatus = "pending"
	StatusAccepted RecipientStatus = "accepted"
	StatusRejected RecipientStatus = "rejected"
)

// Valid reports whether s is one of the three known statuses.
func (s RecipientStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s is accepted or rejected.
func (s RecipientStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// UnmarshalText implements encoding.TextUnmarshaler.
// encoding/json uses it for map values and plain fields alike.
func (s *RecipientStatus) UnmarshalText(text []byte) error {
	v := RecipientStatus(text)
	if !v.Valid() {
		return fmt.Errorf("model: unknown recipient status %q", string(text))
	}
	*s = v
	return nil
}

// Job is an offer from one creator to one or more recipients.
//
// INVARIANTS:
//   - the keys of Status are exactly the entries of RecipientUsernames
//   - RecipientUsernames is non-empty, duplicate-free and in entry order
//   - CreatorID/CreatorUsername never change after creation
//
// Status is the only mutable part of a job.
type Job struct {
	ID                 string                     `json:"id"`
	Title              string                     `json:"title"`
	Description        string                     `json:"description"`
	Type               string                     `json:"type"`
	EstimatedValue     float64                    `json:"estimatedValue"`
	CreatorID          string                     `json:"creatorId"`
	CreatorUsername    string                     `json:"creatorUsername"`
	RecipientUsernames []string                   `json:"recipientUsernames"`
	Status             map[string]RecipientStatus `json:"status"`
	CreatedAt          time.Time                  `json:"createdAt"`
}

// HasRecipient reports whether username is one of the job's recipients.
func (j *Job) HasRecipient(username string) bool {
	_, ok := j.Status[username]
	return ok
}

// VisibleTo reports whether username created the job or is a recipient.
func (j *Job) VisibleTo(username string) bool {
	return j.CreatorUsername == username || slices.Contains(j.RecipientUsernames, username)
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate stored state through a returned value.
func (j Job) Clone() Job {
	j.RecipientUsernames = slices.Clone(j.RecipientUsernames)
	status := make(map[string]RecipientStatus, len(j.Status))
	for k, v := range j.Status {
		status[k] = v
	}
	j.Status = status
	return j
}

// Participant is an account reference resolved for display. Name is empty
// when the account no longer exists.
type Participant struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

// JobView is a job as seen by one viewer.
//
// MyStatus is the viewer's own recipient entry, or nil when the viewer is only
// the creator. There is no job-wide status.
type JobView struct {
	Job
	Creator    Participant      `json:"creator"`
	Recipients []Participant    `json:"recipients"`
	MyStatus   *RecipientStatus `json:"myStatus,omitempty"`
	CanRemove  bool             `json:"canRemove"`
}
