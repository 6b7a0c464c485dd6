package models

import "time"

// Snapshot is one complete release of the course catalog.
type Snapshot struct {
	Release     string
	FetchedAt   time.Time
	Departments []Department
}

type Department struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Courses []Course `json:"courses"`
}

type Course struct {
	Crse     int       `json:"crse"`
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section is a single registrable offering of a course. Rem is the number of
// open seats out of Cap.
type Section struct {
	Sec string `json:"sec"`
	CRN int    `json:"crn"`
	Cap int    `json:"cap"`
	Rem int    `json:"rem"`
}

// SectionRef is a section together with the title of the course it belongs to.
type SectionRef struct {
	Section
	CourseTitle string
}

// FindSection walks departments, courses and sections in order and returns
// the first section whose CRN matches.
func (s *Snapshot) FindSection(crn int) (SectionRef, bool) {
	if s == nil {
		return SectionRef{}, false
	}
	for _, dept := range s.Departments {
		for _, course := range dept.Courses {
			for _, sec := range course.Sections {
				if sec.CRN == crn {
					return SectionRef{Section: sec, CourseTitle: course.Title}, true
				}
			}
		}
	}
	return SectionRef{}, false
}

// SectionCount returns the total number of sections in the snapshot.
func (s *Snapshot) SectionCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, dept := range s.Departments {
		for _, course := range dept.Courses {
			n += len(course.Sections)
		}
	}
	return n
}
