package notifications

const (
	TypeLeaveSubmitted     = "leave_submitted"
	TypeLeaveAwaitingHR    = "leave_awaiting_hr"
	TypeLeaveApproved      = "leave_approved"
	TypeLeaveRejected      = "leave_rejected"
	TypeLeaveCancelled     = "leave_cancelled"
	TypeLeaveReminder      = "leave_reminder"
	TypeCandidateMoved     = "candidate_moved"
	TypeCandidateHired     = "candidate_hired"
	TypeJobClosed          = "job_closed"
	TypeRolePermissionsSet = "role_permissions_changed"
)
