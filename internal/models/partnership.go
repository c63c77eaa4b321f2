package models

import "time"

// PartnershipStatus represents the lifecycle of a course/project partnership.
type PartnershipStatus string

// Possible partnership statuses.
const (
	PartnershipStatusPending  PartnershipStatus = "PENDING"
	PartnershipStatusApproved PartnershipStatus = "APPROVED"
	PartnershipStatusRejected PartnershipStatus = "REJECTED"
	PartnershipStatusCanceled PartnershipStatus = "CANCELED"
	PartnershipStatusUpcoming PartnershipStatus = "UPCOMING"
	PartnershipStatusOngoing  PartnershipStatus = "ONGOING"
	PartnershipStatusComplete PartnershipStatus = "COMPLETE"
)

// ActiveStatuses are the statuses counted by the one-active-partnership
// exclusivity rule, per course and per project.
var ActiveStatuses = []PartnershipStatus{
	PartnershipStatusApproved,
	PartnershipStatusUpcoming,
	PartnershipStatusOngoing,
}

// IsActive reports whether the status counts toward exclusivity.
func (s PartnershipStatus) IsActive() bool {
	return s == PartnershipStatusApproved || s == PartnershipStatusUpcoming || s == PartnershipStatusOngoing
}

// IsTerminal reports whether the status permits no further transitions.
func (s PartnershipStatus) IsTerminal() bool {
	return s == PartnershipStatusRejected || s == PartnershipStatusCanceled || s == PartnershipStatusComplete
}

// allowedTransitions is the manual transition table. The automatic
// Upcoming/Ongoing/Complete refinement driven by dates is handled by the
// lifecycle resolver, not by this table.
var allowedTransitions = map[PartnershipStatus][]PartnershipStatus{
	PartnershipStatusPending:  {PartnershipStatusApproved, PartnershipStatusRejected, PartnershipStatusCanceled},
	PartnershipStatusApproved: {PartnershipStatusUpcoming, PartnershipStatusOngoing, PartnershipStatusComplete},
	PartnershipStatusUpcoming: {PartnershipStatusOngoing, PartnershipStatusComplete},
	PartnershipStatusOngoing:  {PartnershipStatusComplete},
	PartnershipStatusRejected: {},
	PartnershipStatusCanceled: {},
	PartnershipStatusComplete: {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to PartnershipStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SuccessMetrics captures outcome scores recorded while completing a partnership.
type SuccessMetrics struct {
	Satisfaction    *float64 `db:"satisfaction" json:"satisfaction,omitempty" validate:"omitempty,gte=0,lte=10"`
	CompletionRate  *float64 `db:"completion_rate" json:"completion_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	GoalAchievement *float64 `db:"goal_achievement" json:"goal_achievement,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// PartnershipMessage is one entry of the append-only conversation log.
type PartnershipMessage struct {
	ID            string    `db:"id" json:"id"`
	PartnershipID string    `db:"partnership_id" json:"partnership_id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Body          string    `db:"body" json:"body"`
	SentAt        time.Time `db:"sent_at" json:"sent_at"`
}

// Partnership links one course to one industry project through a
// request/approve/complete workflow.
type Partnership struct {
	ID                string            `db:"id" json:"id"`
	CourseID          string            `db:"course_id" json:"course_id"`
	ProjectID         string            `db:"project_id" json:"project_id"`
	RequestedByUserID string            `db:"requested_by_user_id" json:"requested_by_user_id"`
	RequestedToUserID string            `db:"requested_to_user_id" json:"requested_to_user_id"`
	Status            PartnershipStatus `db:"status" json:"status"`

	StartDate *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`

	RequestMessage  *string `db:"request_message" json:"request_message,omitempty"`
	ResponseMessage *string `db:"response_message" json:"response_message,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	RejectedAt  *time.Time `db:"rejected_at" json:"rejected_at,omitempty"`
	CanceledAt  *time.Time `db:"canceled_at" json:"canceled_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	IsComplete  bool       `db:"is_complete" json:"is_complete"`

	RequestYear    int `db:"request_year" json:"request_year"`
	RequestQuarter int `db:"request_quarter" json:"request_quarter"`
	RequestMonth   int `db:"request_month" json:"request_month"`

	ApprovalTimeInDays        *int `db:"approval_time_in_days" json:"approval_time_in_days,omitempty"`
	PartnershipDurationInDays *int `db:"partnership_duration_in_days" json:"partnership_duration_in_days,omitempty"`

	Satisfaction    *float64 `db:"satisfaction" json:"satisfaction,omitempty"`
	CompletionRate  *float64 `db:"completion_rate" json:"completion_rate,omitempty"`
	GoalAchievement *float64 `db:"goal_achievement" json:"goal_achievement,omitempty"`
}

// PartnershipDetail enriches Partnership with its conversation log.
type PartnershipDetail struct {
	Partnership
	Messages []PartnershipMessage `json:"messages"`
}

// HasDates reports whether both schedule dates are set.
func (p *Partnership) HasDates() bool {
	return p.StartDate != nil && p.EndDate != nil
}

// PartnershipFilter provides filters for listing partnerships.
type PartnershipFilter struct {
	CourseID       string
	ProjectID      string
	UserID         string
	Status         PartnershipStatus
	RequestYear    int
	RequestQuarter int
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
