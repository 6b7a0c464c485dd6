package models

import "github.com/lib/pq"

// Subscription is one row of the subscriptions table: every email waiting
// on a seat in the section identified by CRN.
type Subscription struct {
	CRN    int            `db:"crn"`
	Emails pq.StringArray `db:"emails"`
}

// HasEmail reports whether email is in the row's set.
func (s Subscription) HasEmail(email string) bool {
	for _, e := range s.Emails {
		if e == email {
			return true
		}
	}
	return false
}
