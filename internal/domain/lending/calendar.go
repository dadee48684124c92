package lending

import (
	"time"

	"github.com/lending/backend/internal/domain/shared"
)

// BankCalendar is the bank's single notion of "today". One record per
// process; batch settlement is the only writer and advances it one day at a
// time. The processing-lock flag is informational: mutual exclusion between
// settlement runs is enforced in memory by the settlement service.
type BankCalendar struct {
	shared.BaseEntity
	CurrentTime            time.Time  `json:"current_time" gorm:"not null"`
	LastDailyProcessedAt   *time.Time `json:"last_daily_processed_at"`
	LastMonthlyProcessedAt *time.Time `json:"last_monthly_processed_at"`
	ProcessingLock         bool       `json:"processing_lock" gorm:"not null;default:false"`
}

// NewBankCalendar creates a calendar starting at the given time
func NewBankCalendar(now time.Time) *BankCalendar {
	return &BankCalendar{
		BaseEntity:  shared.NewBaseEntity(),
		CurrentTime: now,
	}
}

// AdvanceDay moves the calendar forward by exactly one day and clears the
// processing lock, returning the new current time
func (c *BankCalendar) AdvanceDay() time.Time {
	c.CurrentTime = c.CurrentTime.AddDate(0, 0, 1)
	c.ProcessingLock = false
	c.UpdatedAt = time.Now().UTC()
	return c.CurrentTime
}

// MarkDailyProcessed stamps the last daily settlement time with the current
// processing time
func (c *BankCalendar) MarkDailyProcessed() {
	t := c.CurrentTime
	c.LastDailyProcessedAt = &t
	c.UpdatedAt = time.Now().UTC()
}

// MarkMonthlyProcessed stamps the last monthly settlement time with the
// current processing time
func (c *BankCalendar) MarkMonthlyProcessed() {
	t := c.CurrentTime
	c.LastMonthlyProcessedAt = &t
	c.UpdatedAt = time.Now().UTC()
}

// IsMonthEnd reports whether the calendar's current date is the last
// calendar day of its month
func (c *BankCalendar) IsMonthEnd() bool {
	return IsLastDayOfMonth(c.CurrentTime)
}

// IsLastDayOfMonth reports whether the date is the last calendar day of its month
func IsLastDayOfMonth(date time.Time) bool {
	year, month, day := date.Date()
	return day == time.Date(year, month+1, 0, 0, 0, 0, 0, date.Location()).Day()
}
