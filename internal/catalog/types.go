package catalog

// Section is one class section's weekly timetable. Index i across Days, StartTimes, EndTimes,
// Locations and Instructors describes one timeslot, so the five slices always have equal length.
type Section struct {
	StartTimes   []string `json:"startTimes"`
	EndTimes     []string `json:"endTimes"`
	Days         []int    `json:"days"`
	Locations    []string `json:"locations"`
	Instructors  []string `json:"instructors"`
	MeetingDates []string `json:"meetingDates"`
}

// Len is the number of timeslots in the section.
func (s Section) Len() int {
	return len(s.Days)
}

// Consistent reports whether the parallel timeslot slices have equal length.
func (s Section) Consistent() bool {
	n := len(s.Days)
	return len(s.StartTimes) == n &&
		len(s.EndTimes) == n &&
		len(s.Locations) == n &&
		len(s.Instructors) == n
}

// Empty reports whether the section has neither a timeslot nor a meeting date.
func (s Section) Empty() bool {
	return len(s.Days) == 0 && len(s.MeetingDates) == 0
}

// Sections maps a section code (ex. "--LEC (1234)") to its timetable.
type Sections = map[string]Section

// Terms maps a term name (ex. "2022-23 Term 1") to the sections offered in it.
type Terms = map[string]Sections

// Course is one catalog entry. Only Code and Title are guaranteed, every other
// field is blank when its part of the detail page could not be read.
type Course struct {
	Code                string            `json:"code"`
	Title               string            `json:"title"`
	Career              string            `json:"career"`
	Units               string            `json:"units"`
	Grading             string            `json:"grading"`
	Components          string            `json:"components"`
	Campus              string            `json:"campus"`
	AcademicGroup       string            `json:"academic_group"`
	Requirements        string            `json:"requirements"`
	Description         string            `json:"description"`
	Outcome             string            `json:"outcome"`
	Syllabus            string            `json:"syllabus"`
	RequiredReadings    string            `json:"required_readings"`
	RecommendedReadings string            `json:"recommended_readings"`
	Assessments         map[string]string `json:"assessments,omitempty"`
	Terms               Terms             `json:"terms,omitempty"`
}

// Instructors returns every instructor string appearing in the course's sections.
func (c Course) Instructors() []string {
	var out []string
	for _, sections := range c.Terms {
		for _, section := range sections {
			out = append(out, section.Instructors...)
		}
	}
	return out
}
