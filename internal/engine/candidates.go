package engine

// GenerateCandidates enumerates the (teacher, subject, grade, section)
// assignment tasks per §4.C. Unresolvable subject references and grades
// missing from settings are dropped with an UnknownReference diagnostic
// rather than failing the run.
func GenerateCandidates(settings SchoolSettings, teachers []Teacher, subjects map[string]*Subject) ([]Candidate, []Diagnostic) {
	var candidates []Candidate
	var diagnostics []Diagnostic

	for _, t := range teachers {
		for _, subjectID := range t.SubjectIDs {
			subject, ok := subjects[subjectID]
			if !ok {
				diagnostics = append(diagnostics, Diagnostic{
					Kind:    KindUnknownReference,
					Message: "teacher " + t.ID + " references unknown subject " + subjectID,
				})
				continue
			}
			for _, grade := range settings.Grades {
				if !subject.AppliesToGrade(grade) || !t.TeachesGrade(grade) {
					continue
				}
				sections, ok := settings.ClassesPerGrade[grade]
				if !ok {
					diagnostics = append(diagnostics, Diagnostic{
						Kind:    KindUnknownReference,
						Message: "grade missing from classes-per-grade settings",
					})
					continue
				}
				required := subject.RequiredHoursFor(grade)
				if required <= 0 {
					continue
				}
				for _, section := range sections {
					candidates = append(candidates, Candidate{
						TeacherID:     t.ID,
						SubjectID:     subject.ID,
						ClassGrade:    grade,
						ClassSection:  section,
						RequiredHours: required,
					})
				}
			}
		}
	}

	return candidates, diagnostics
}
