package presets

import (
	"board-service/internal/domain/user"
	"board-service/internal/rbac"
)

const (
	RoleAdmin   = rbac.Role(user.RoleAdmin)
	RoleManager = rbac.Role(user.RoleManager)
	RoleUser    = rbac.Role(user.RoleUser)

	ResourcePost  rbac.Resource = "post"
	ResourceFile  rbac.Resource = "file"
	ResourceUser  rbac.Resource = "user"
	ResourceAudit rbac.Resource = "audit"

	ActionRead   rbac.Action = "read"
	ActionWrite  rbac.Action = "write"
	ActionDelete rbac.Action = "delete"
	ActionManage rbac.Action = "manage"
)

// Board returns the RBAC configuration for the board service. Ownership of posts
// and files is checked by the services; capabilities here describe what a role may
// do to resources it does not own.
func Board() rbac.Config {
	return rbac.Config{
		Roles: []rbac.RoleDefinition{
			{Name: RoleAdmin, Level: 3},
			{Name: RoleManager, Level: 2},
			{Name: RoleUser, Level: 1},
		},
		Resources: []rbac.Resource{
			ResourcePost,
			ResourceFile,
			ResourceUser,
			ResourceAudit,
		},
		Actions: []rbac.Action{
			ActionRead,
			ActionWrite,
			ActionDelete,
			ActionManage,
		},
		Capabilities: map[rbac.Role]map[rbac.Resource][]rbac.Action{
			RoleAdmin: {
				ResourcePost:  {ActionRead, ActionDelete, ActionManage},
				ResourceFile:  {ActionRead, ActionDelete},
				ResourceUser:  {ActionRead, ActionWrite, ActionDelete, ActionManage},
				ResourceAudit: {ActionRead},
			},
			RoleManager: {
				ResourcePost: {ActionRead, ActionDelete},
				ResourceFile: {ActionRead},
				ResourceUser: {ActionRead},
			},
			RoleUser: {
				ResourcePost: {ActionRead},
			},
		},
	}
}
