package engine

// AssignStrict implements §4.F's strict commit path: it resolves a
// classroom if the subject demands one, and refuses the placement (leaving
// the slot untouched) if none is available. It does not run the checker
// pipeline — the caller is expected to have already evaluated it.
func AssignStrict(slot *Slot, candidate Candidate, subject *Subject, grid *Grid) bool {
	if !slot.Empty() {
		return false
	}
	var classroom *Classroom
	if subject != nil && subject.RequiresSpecialClassroom {
		room, found := ResolveClassroom(subject, slot, grid)
		if !found {
			return false
		}
		classroom = room
	}
	commit(slot, candidate, classroom, grid)
	return true
}

// AssignTolerant always commits the placement, appending any rejections
// surfaced by evaluation to the slot's violations and recording the
// highest severity seen, per §4.F. When the subject needs a special room
// and none is free, a classroom-conflict violation of MEDIUM severity is
// appended instead of leaving the slot without a room silently.
func AssignTolerant(slot *Slot, candidate Candidate, subject *Subject, grid *Grid, violations []Violation) {
	var classroom *Classroom
	if subject != nil && subject.RequiresSpecialClassroom {
		room, found := ResolveClassroom(subject, slot, grid)
		if found {
			classroom = room
		} else {
			violations = append(violations, Violation{
				Type:     "CLASSROOM_CONFLICT",
				Severity: SeverityMedium,
				Message:  "no suitable classroom of type " + subject.ClassroomType + " available",
			})
		}
	}
	commit(slot, candidate, classroom, grid)
	if len(violations) > 0 {
		slot.HasViolation = true
		slot.Violations = append(slot.Violations, violations...)
		slot.ViolationSeverity = HighestSeverity(slot.Violations)
	}
}

func commit(slot *Slot, candidate Candidate, classroom *Classroom, grid *Grid) {
	slot.SubjectID = candidate.SubjectID
	slot.TeacherID = candidate.TeacherID
	grid.markTeacher(candidate.TeacherID, slot)
	if classroom != nil {
		slot.ClassroomID = classroom.ID
		grid.markClassroom(classroom.ID, slot)
	}
}

// Unassign clears a slot's assignment and violation state, per §4.F.
func Unassign(slot *Slot, grid *Grid) {
	if slot.TeacherID != "" {
		grid.unmarkTeacher(slot.TeacherID, slot)
	}
	if slot.ClassroomID != "" {
		grid.unmarkClassroom(slot.ClassroomID, slot)
	}
	slot.SubjectID = ""
	slot.TeacherID = ""
	slot.ClassroomID = ""
	slot.HasViolation = false
	slot.Violations = nil
	slot.ViolationSeverity = SeverityNone
}
