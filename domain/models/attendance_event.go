package models

// EventType is the kind of attendance event.
type EventType string

const (
	EventIn      EventType = "in"
	EventOut     EventType = "out"
	EventPresent EventType = "present"
)

// Mode distinguishes the on-site check-in/out flow from remote verification.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// AttendanceEvent is one append-only ledger row. ID is the sequence id
// assigned by the database. Date and Time are formatted with DateLayout and
// TimeLayout, captured in server-local time at commit; both formats sort
// lexicographically, which the history ordering relies on.
//
// No foreign key to faces: events outlive a deleted profile, so Name is
// denormalized onto every row.
type AttendanceEvent struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	RegNo string    `gorm:"column:reg_no;not null;index:idx_attendance_identity,priority:1" json:"reg_no"`
	Name  string    `gorm:"not null" json:"name"`
	Type  EventType `gorm:"column:type;not null" json:"type"`
	Time  string    `gorm:"not null" json:"time"`
	Date  string    `gorm:"not null;index:idx_attendance_identity,priority:2" json:"date"`
	Mode  Mode      `gorm:"not null;index:idx_attendance_identity,priority:3" json:"mode"`
}

func (AttendanceEvent) TableName() string {
	return "attendance"
}
