package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"candidate": {
		"exam:view",
		"attempt:create",
		"attempt:save",
		"attempt:signal",
		"attempt:submit",
	},
	"grader": {
		"exam:create",
		"exam:view",
		"submission:list",
		"submission:view",
		"submission:grade",
		"audit:view",
	},
	"admin": {
		"*", // everything
	},
}
