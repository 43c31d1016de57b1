package rbac

type Role string
type Action string

const (
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

const (
	ActionRead      Action = "read"
	ActionSubmit    Action = "submit"
	ActionReview    Action = "review"
	ActionManage    Action = "manage"
	ActionRetention Action = "retention"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleStaff:
		return action == ActionRead || action == ActionSubmit || action == ActionReview
	case RoleClient:
		return action == ActionRead || action == ActionSubmit
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleClient, RoleStaff, RoleAdmin:
		return Role(role)
	default:
		return RoleClient
	}
}
