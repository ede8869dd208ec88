package models

import "time"

// Status описывает статус проверки сущности.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusInReview Status = "In Review"
	StatusVerified Status = "Verified"
	StatusRejected Status = "Rejected"
)

// StatusChoices перечисляет допустимые статусы в порядке отображения.
var StatusChoices = []Status{StatusPending, StatusInReview, StatusVerified, StatusRejected}

// Valid сообщает, входит ли статус в StatusChoices.
func (s Status) Valid() bool {
	for _, c := range StatusChoices {
		if s == c {
			return true
		}
	}
	return false
}

// Disabled хранит отметку об отключении сущности.
type Disabled struct {
	Disabled       bool
	DisabledDate   *time.Time
	DisabledBy     *int64
	DisabledReason string
}
