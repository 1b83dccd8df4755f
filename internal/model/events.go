package model

// AttendanceEvent is published on the event bus on clock-in and clock-out
type AttendanceEvent struct {
	AttendanceID string           `json:"attendance_id"`
	EmployeeID   string           `json:"employee_id"`
	EmployeeName string           `json:"employee_name"`
	Status       AttendanceStatus `json:"status"`
	Address      string           `json:"address"`
	Office       *string          `json:"office,omitempty"`
	TotalHours   *float64         `json:"total_hours,omitempty"`
	Timestamp    int64            `json:"timestamp"`
}

// MovementEvent is published on the event bus when a movement starts or closes
type MovementEvent struct {
	MovementID string         `json:"movement_id"`
	EmployeeID string         `json:"employee_id"`
	Status     MovementStatus `json:"status"`
	Reason     string         `json:"reason"`
	Timestamp  int64          `json:"timestamp"`
}

// LocationEvent is published on the event bus for every recorded sample
type LocationEvent struct {
	EmployeeID   string  `json:"employee_id"`
	AttendanceID *string `json:"attendance_id,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Address      string  `json:"address,omitempty"`
	Timestamp    int64   `json:"timestamp"`
}
