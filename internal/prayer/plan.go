package prayer

import (
	"time"

	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
)

// Plan derives a reminder for every non-excluded event in the table:
// fire lead before the event. Reminders whose fire instant is not
// strictly in the future at planning time are dropped for the rest of
// the day; they are never fired retroactively. The result is a pure
// function of its inputs, so re-planning with unchanged inputs yields
// identical output.
func Plan(table *entities.TimeTable, lead time.Duration, now time.Time, exclude map[entities.Event]bool) []entities.PlannedReminder {
	if table == nil {
		return nil
	}

	planned := make([]entities.PlannedReminder, 0, table.Len())
	for _, ev := range table.Events() {
		if exclude[ev] {
			continue
		}
		at, _ := table.At(ev)
		fireAt := at.Add(-lead)
		if !fireAt.After(now) {
			continue
		}
		planned = append(planned, entities.PlannedReminder{
			Event:   ev,
			FireAt:  fireAt,
			EventAt: at,
		})
	}

	return planned
}
