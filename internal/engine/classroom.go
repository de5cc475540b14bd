package engine

// ResolveClassroom implements §4.E: choose a suitable classroom for subject
// at the target slot, or report none. Classrooms are scanned in the order
// they were registered on the grid so resolution stays deterministic.
func ResolveClassroom(subject *Subject, slot *Slot, grid *Grid) (*Classroom, bool) {
	if subject == nil || !subject.RequiresSpecialClassroom {
		return nil, true
	}
	for _, id := range grid.classroomOrder {
		room := grid.Classrooms[id]
		if room == nil || room.Type != subject.ClassroomType {
			continue
		}
		if grid.ClassroomOccupancy(room.ID, slot.Day, slot.Period) < room.capacity() {
			return room, true
		}
	}
	return nil, false
}
