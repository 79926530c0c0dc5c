package models

// ScheduleItem is a single first-day agenda entry.
type ScheduleItem struct {
	Time     string `json:"time"`
	Activity string `json:"activity"`
	Location string `json:"location,omitempty"`
}

// Employee is the new-hire record received from the HR system.
type Employee struct {
	EmployeeID        string            `json:"employee_id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Position          string            `json:"position"`
	Team              string            `json:"team"`
	Manager           string            `json:"manager"`
	StartDate         string            `json:"start_date"`
	Office            string            `json:"office"`
	TechStack         []string          `json:"tech_stack,omitempty"`
	FirstDaySchedule  []ScheduleItem    `json:"first_day_schedule,omitempty"`
	FirstWeekSchedule map[string]string `json:"first_week_schedule,omitempty"`
	Department        string            `json:"department,omitempty"`
	Buddy             string            `json:"buddy,omitempty"`
}

// FirstName returns the leading word of the full name, used in slide and
// email greetings.
func (e Employee) FirstName() string {
	for i, r := range e.Name {
		if r == ' ' {
			return e.Name[:i]
		}
	}
	return e.Name
}
