// Package scheduler implements the timetable optimization engine: a
// genetic-algorithm search over weekly class placements together with the
// constraint model that scores a candidate schedule. The package is
// intentionally free of persistence, HTTP, and logging concerns — callers
// build an Instance from stored entities, call DeriveClasses and Run, and
// persist whatever Chromosome comes back.
package scheduler

const (
	// DaysPerWeek is the number of working days modeled (Monday..Saturday).
	DaysPerWeek = 6
	// PeriodsPerDay is the number of numbered periods in a working day.
	PeriodsPerDay = 6
	// TheoryMaxEndPeriod is the last period a theory session may occupy;
	// periods 5 and 6 are reserved so every day keeps an afternoon lab slot.
	TheoryMaxEndPeriod = 4
	// LabPeriodsCount is the fixed span of a lab session.
	LabPeriodsCount = 2
)

// unplaced is the sentinel Day/StartPeriod value for a gene that has not
// yet been assigned a timeslot. Valid days and periods are 1-indexed, so 0
// can never collide with a real placement.
const unplaced = 0

// CourseType distinguishes the two session shapes the evaluator and oracle
// dispatch on. Deliberately a tagged value, not a type hierarchy.
type CourseType string

const (
	CourseTypeTheory CourseType = "theory"
	CourseTypeLab    CourseType = "lab"
)

// PreferenceKind distinguishes a hard block from a soft preference window.
type PreferenceKind string

const (
	PreferenceBlocked   PreferenceKind = "blocked"
	PreferencePreferred PreferenceKind = "preferred"
)

// Semester is the minimal projection of a semester the core needs: an id
// used to group genes for the semester-collision and semester-gap penalties.
type Semester struct {
	ID string
}

// Faculty is the minimal projection of a faculty member the core needs.
type Faculty struct {
	ID string
}

// Course carries the weekly-hours and type fields that drive derivation.
type Course struct {
	ID          string
	Type        CourseType
	WeeklyHours int
}

// CourseMapping binds a course to the faculty teaching it within a
// semester. FacultyID2 is set only for lab mappings (the co-teacher); a nil
// FacultyID2 on a lab course is a dangling mapping and is skipped.
type CourseMapping struct {
	ID         string
	SemesterID string
	CourseID   string
	FacultyID  string
	FacultyID2 *string
}

// FacultyPreference describes one day/period-range window a faculty member
// either cannot teach in or would like to teach in.
type FacultyPreference struct {
	FacultyID   string
	Day         int
	PeriodStart int
	PeriodEnd   int
	Kind        PreferenceKind
}

// Instance is the read-only problem snapshot the core operates against for
// the lifetime of one Run. Nothing in the search mutates it.
type Instance struct {
	Semesters   []Semester
	Faculty     []Faculty
	Courses     []Course
	CourseMaps  []CourseMapping
	Preferences []FacultyPreference
}

// Warning reports a dangling reference skipped during derivation; non-fatal.
type Warning struct {
	MappingID string
	Reason    string
}

func (i Instance) semesterIndex() map[string]Semester {
	m := make(map[string]Semester, len(i.Semesters))
	for _, s := range i.Semesters {
		m[s.ID] = s
	}
	return m
}

func (i Instance) facultyIndex() map[string]Faculty {
	m := make(map[string]Faculty, len(i.Faculty))
	for _, f := range i.Faculty {
		m[f.ID] = f
	}
	return m
}

func (i Instance) courseIndex() map[string]Course {
	m := make(map[string]Course, len(i.Courses))
	for _, c := range i.Courses {
		m[c.ID] = c
	}
	return m
}

// DeriveClasses expands the instance's course mappings into the gene
// template sequence: one Gene per required session, in the fixed
// order that every chromosome in the run will share. A theory mapping
// yields one gene per weekly hour; a lab mapping yields exactly one
// 2-period gene regardless of the course's declared weekly hours. Mappings
// referencing a missing course or faculty are skipped and reported as
// warnings rather than failing the whole derivation.
func DeriveClasses(instance Instance) ([]Gene, []Warning) {
	courses := instance.courseIndex()
	faculty := instance.facultyIndex()

	var genes []Gene
	var warnings []Warning

	for _, mapping := range instance.CourseMaps {
		course, ok := courses[mapping.CourseID]
		if !ok {
			warnings = append(warnings, Warning{MappingID: mapping.ID, Reason: "unknown course"})
			continue
		}
		if _, ok := faculty[mapping.FacultyID]; !ok {
			warnings = append(warnings, Warning{MappingID: mapping.ID, Reason: "unknown faculty"})
			continue
		}

		if course.Type == CourseTypeLab {
			if mapping.FacultyID2 == nil {
				warnings = append(warnings, Warning{MappingID: mapping.ID, Reason: "lab mapping missing second faculty"})
				continue
			}
			if _, ok := faculty[*mapping.FacultyID2]; !ok {
				warnings = append(warnings, Warning{MappingID: mapping.ID, Reason: "unknown second faculty"})
				continue
			}
			genes = append(genes, Gene{
				SemesterID:   mapping.SemesterID,
				CourseID:     mapping.CourseID,
				FacultyIDs:   []string{mapping.FacultyID, *mapping.FacultyID2},
				PeriodsCount: LabPeriodsCount,
				IsLab:        true,
			})
			continue
		}

		hours := course.WeeklyHours
		if hours <= 0 {
			warnings = append(warnings, Warning{MappingID: mapping.ID, Reason: "non-positive weekly hours"})
			continue
		}
		for n := 0; n < hours; n++ {
			genes = append(genes, Gene{
				SemesterID:   mapping.SemesterID,
				CourseID:     mapping.CourseID,
				FacultyIDs:   []string{mapping.FacultyID},
				PeriodsCount: 1,
				IsLab:        false,
			})
		}
	}

	return genes, warnings
}
