package engine

// slotKey addresses one (day, period) timeslot across the whole grid,
// independent of grade/section.
type slotKey struct {
	Day    Day
	Period int
}

// Grid is the 3-D timetable: [gradeIndex][sectionIndex][timeslotIndex].
// It owns the immutable lookup tables the solve needs to resolve ids back
// to values (§9 "cyclic references") and the occupancy indices the
// constraint checkers and resolver query.
type Grid struct {
	Settings SchoolSettings

	grades        []int
	sections      map[int][]string
	timeslots     []slotKey
	timeslotIndex map[slotKey]int
	gradeIndex    map[int]int
	sectionIndex  map[int]map[string]int

	cells [][][]Slot

	Teachers       map[string]*Teacher
	Subjects       map[string]*Subject
	Classrooms     map[string]*Classroom
	classroomOrder []string

	teacherBusy   map[string]map[slotKey]*Slot
	classroomBusy map[string]map[slotKey]int
}

// RegisterTeachers installs the id-to-value lookup table the checkers and
// Assigner resolve candidate.TeacherID through, per §9 "Cyclic references".
func (g *Grid) RegisterTeachers(teachers []Teacher) {
	for i := range teachers {
		t := teachers[i]
		g.Teachers[t.ID] = &t
	}
}

// RegisterSubjects installs the subject lookup table.
func (g *Grid) RegisterSubjects(subjects []Subject) map[string]*Subject {
	bySubjectID := make(map[string]*Subject, len(subjects))
	for i := range subjects {
		s := subjects[i]
		g.Subjects[s.ID] = &s
		bySubjectID[s.ID] = &s
	}
	return bySubjectID
}

// RegisterClassrooms installs the classroom lookup table, preserving
// caller order for deterministic Resolver scanning.
func (g *Grid) RegisterClassrooms(classrooms []Classroom) {
	for i := range classrooms {
		c := classrooms[i]
		g.Classrooms[c.ID] = &c
		g.classroomOrder = append(g.classroomOrder, c.ID)
	}
}

// BuildGrid constructs the empty slot grid from settings, per §4.B.
func BuildGrid(settings SchoolSettings) (*Grid, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	g := &Grid{
		Settings:      settings,
		grades:        sortedGradesPreservingOrder(settings.Grades),
		sections:      settings.ClassesPerGrade,
		gradeIndex:    make(map[int]int, len(settings.Grades)),
		sectionIndex:  make(map[int]map[string]int, len(settings.Grades)),
		timeslotIndex: make(map[slotKey]int),
		teacherBusy:   make(map[string]map[slotKey]*Slot),
		classroomBusy: make(map[string]map[slotKey]int),
		Teachers:      make(map[string]*Teacher),
		Subjects:      make(map[string]*Subject),
		Classrooms:    make(map[string]*Classroom),
	}

	for _, d := range settings.Days() {
		for p := 1; p <= settings.PeriodsOn(d); p++ {
			key := slotKey{Day: d, Period: p}
			g.timeslotIndex[key] = len(g.timeslots)
			g.timeslots = append(g.timeslots, key)
		}
	}

	g.cells = make([][][]Slot, len(g.grades))
	for gi, grade := range g.grades {
		g.gradeIndex[grade] = gi
		sections, ok := settings.ClassesPerGrade[grade]
		if !ok || len(sections) == 0 {
			return nil, &Error{Kind: KindInvalidGrade, Message: "missing classes-per-grade entry"}
		}
		g.sectionIndex[grade] = make(map[string]int, len(sections))
		g.cells[gi] = make([][]Slot, len(sections))
		for si, section := range sections {
			g.sectionIndex[grade][section] = si
			slots := make([]Slot, len(g.timeslots))
			for ti, key := range g.timeslots {
				slots[ti] = Slot{
					ClassGrade:   grade,
					ClassSection: section,
					Day:          key.Day,
					Period:       key.Period,
				}
			}
			g.cells[gi][si] = slots
		}
	}

	return g, nil
}

func sortedGradesPreservingOrder(grades []int) []int {
	out := make([]int, len(grades))
	copy(out, grades)
	return out
}

// At returns the address of the slot for (grade, section, day, period), or
// nil if the coordinate is out of range.
func (g *Grid) At(grade int, section string, d Day, period int) *Slot {
	gi, ok := g.gradeIndex[grade]
	if !ok {
		return nil
	}
	si, ok := g.sectionIndex[grade][section]
	if !ok {
		return nil
	}
	ti, ok := g.timeslotIndex[slotKey{Day: d, Period: period}]
	if !ok {
		return nil
	}
	return &g.cells[gi][si][ti]
}

// SlotsFor returns every slot for (grade, section) in reading order.
func (g *Grid) SlotsFor(grade int, section string) []*Slot {
	gi, ok := g.gradeIndex[grade]
	if !ok {
		return nil
	}
	si, ok := g.sectionIndex[grade][section]
	if !ok {
		return nil
	}
	row := g.cells[gi][si]
	out := make([]*Slot, len(row))
	for i := range row {
		out[i] = &row[i]
	}
	return out
}

// AllSlots returns every slot of the grid in (grade, section, timeslot)
// reading order. Used by statistics and export.
func (g *Grid) AllSlots() []*Slot {
	out := make([]*Slot, 0, len(g.grades)*len(g.timeslots))
	for gi, grade := range g.grades {
		for si := range g.sections[grade] {
			row := g.cells[gi][si]
			for i := range row {
				out = append(out, &row[i])
			}
		}
	}
	return out
}

// Grades returns the settings-ordered list of grades in this grid.
func (g *Grid) Grades() []int { return g.grades }

// TeacherBusyAt reports the slot (if any) where teacherID is already
// committed at (d, period), across every grade/section.
func (g *Grid) TeacherBusyAt(teacherID string, d Day, period int) *Slot {
	byKey := g.teacherBusy[teacherID]
	if byKey == nil {
		return nil
	}
	return byKey[slotKey{Day: d, Period: period}]
}

// ClassroomOccupancy reports how many committed slots currently hold
// classroomID at (d, period).
func (g *Grid) ClassroomOccupancy(classroomID string, d Day, period int) int {
	byKey := g.classroomBusy[classroomID]
	if byKey == nil {
		return 0
	}
	return byKey[slotKey{Day: d, Period: period}]
}

func (g *Grid) markTeacher(teacherID string, slot *Slot) {
	key := slotKey{Day: slot.Day, Period: slot.Period}
	if g.teacherBusy[teacherID] == nil {
		g.teacherBusy[teacherID] = make(map[slotKey]*Slot)
	}
	g.teacherBusy[teacherID][key] = slot
}

func (g *Grid) unmarkTeacher(teacherID string, slot *Slot) {
	key := slotKey{Day: slot.Day, Period: slot.Period}
	if byKey := g.teacherBusy[teacherID]; byKey != nil {
		delete(byKey, key)
	}
}

func (g *Grid) markClassroom(classroomID string, slot *Slot) {
	key := slotKey{Day: slot.Day, Period: slot.Period}
	if g.classroomBusy[classroomID] == nil {
		g.classroomBusy[classroomID] = make(map[slotKey]int)
	}
	g.classroomBusy[classroomID][key]++
}

func (g *Grid) unmarkClassroom(classroomID string, slot *Slot) {
	key := slotKey{Day: slot.Day, Period: slot.Period}
	if byKey := g.classroomBusy[classroomID]; byKey != nil && byKey[key] > 0 {
		byKey[key]--
	}
}

// Clone performs a deep copy of the grid's cell contents (and occupancy
// indices) so the Solver can snapshot the best partial result seen so far
// without it being mutated by subsequent backtracking.
func (g *Grid) Clone() *Grid {
	clone := &Grid{
		Settings:      g.Settings,
		grades:        g.grades,
		sections:      g.sections,
		timeslots:     g.timeslots,
		timeslotIndex: g.timeslotIndex,
		gradeIndex:    g.gradeIndex,
		sectionIndex:  g.sectionIndex,
		Teachers:       g.Teachers,
		Subjects:       g.Subjects,
		Classrooms:     g.Classrooms,
		classroomOrder: g.classroomOrder,
		teacherBusy:    make(map[string]map[slotKey]*Slot),
		classroomBusy:  make(map[string]map[slotKey]int),
	}
	clone.cells = make([][][]Slot, len(g.cells))
	for gi, rows := range g.cells {
		clone.cells[gi] = make([][]Slot, len(rows))
		for si, row := range rows {
			cp := make([]Slot, len(row))
			copy(cp, row)
			clone.cells[gi][si] = cp
		}
	}
	for gi, grade := range clone.grades {
		for si := range clone.sections[grade] {
			for _, slot := range clone.cells[gi][si] {
				if slot.TeacherID != "" {
					clone.markTeacher(slot.TeacherID, clone.At(slot.ClassGrade, slot.ClassSection, slot.Day, slot.Period))
				}
				if slot.ClassroomID != "" {
					clone.markClassroom(slot.ClassroomID, clone.At(slot.ClassGrade, slot.ClassSection, slot.Day, slot.Period))
				}
			}
		}
	}
	return clone
}

// AssignedCount returns the number of non-empty slots in the grid.
func (g *Grid) AssignedCount() int {
	count := 0
	for _, s := range g.AllSlots() {
		if !s.Empty() {
			count++
		}
	}
	return count
}
