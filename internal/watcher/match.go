package watcher

import (
	"iter"

	"seat-notifier/internal/models"
)

// Match is a subscribed section that currently has at least one open seat.
type Match struct {
	SectionID    int
	Emails       []string
	CourseTitle  string
	SectionLabel string
	Remaining    int
	Capacity     int
}

// ListenerIndex maps each subscribed CRN to its email set.
func ListenerIndex(subs []models.Subscription) map[int][]string {
	index := make(map[int][]string, len(subs))
	for _, sub := range subs {
		index[sub.CRN] = append(index[sub.CRN], sub.Emails...)
	}
	return index
}

// Matches yields, in department, course, section order, every section of snap
// that has listeners and a positive remaining count. A CRN listed more than
// once in the catalog is yielded only the first time.
func Matches(snap *models.Snapshot, listeners map[int][]string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		if snap == nil || len(listeners) == 0 {
			return
		}
		seen := make(map[int]struct{})
		for _, dept := range snap.Departments {
			for _, course := range dept.Courses {
				for _, sec := range course.Sections {
					emails, ok := listeners[sec.CRN]
					if !ok || sec.Rem <= 0 {
						continue
					}
					if _, dup := seen[sec.CRN]; dup {
						continue
					}
					seen[sec.CRN] = struct{}{}

					m := Match{
						SectionID:    sec.CRN,
						Emails:       emails,
						CourseTitle:  course.Title,
						SectionLabel: sec.Sec,
						Remaining:    sec.Rem,
						Capacity:     sec.Cap,
					}
					if !yield(m) {
						return
					}
				}
			}
		}
	}
}
