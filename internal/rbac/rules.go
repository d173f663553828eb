package rbac

const (
	PermTestCreate    = "test:create"
	PermTestView      = "test:view"
	PermTestPublish   = "test:publish"
	PermAssign        = "assignment:create"
	PermAssignmentAll = "assignment:view-all"
	PermAssignmentOwn = "assignment:view-own"
	PermAttemptTake   = "assignment:take"
	PermForceSubmit   = "assignment:force-submit"
	PermCancel        = "assignment:cancel"
	PermResultsView   = "result:view"
	PermReportsView   = "report:view"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"candidate": {
		PermAssignmentOwn,
		PermAttemptTake,
	},
	"recruiter": {
		PermTestView,
		PermAssign,
		PermAssignmentAll,
		PermCancel,
		PermResultsView,
		"report:*",
	},
	"admin": {
		"*", // everything
	},
}
