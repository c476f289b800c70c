package model

// FlowType classifies the use case a scan came in through. The flow
// governs which result fields a caller may see.
type FlowType string

const (
	FlowGym     FlowType = "gym"
	FlowSchool  FlowType = "school"
	FlowCharity FlowType = "charity"
	FlowPartner FlowType = "partner"
	FlowClinic  FlowType = "clinic" // clinic-default intake
)

// Caller roles carried in token claims.
const (
	RoleSubject   = "subject"
	RoleStudent   = "student"
	RoleTeacher   = "teacher"
	RoleParent    = "parent"
	RoleNurse     = "nurse"
	RoleNonprofit = "nonprofit"
	RoleClinic    = "clinic"
)

// IsValidFlowType reports whether s names a known flow.
func IsValidFlowType(s string) bool {
	switch FlowType(s) {
	case FlowGym, FlowSchool, FlowCharity, FlowPartner, FlowClinic:
		return true
	}
	return false
}

// HasPartnerAccess reports whether a role sees the full, unredacted
// result regardless of flow.
func HasPartnerAccess(role string) bool {
	switch role {
	case RoleNurse, RoleParent, RoleNonprofit, RoleClinic:
		return true
	}
	return false
}
