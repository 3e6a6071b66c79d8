package rbac

// Role represents a user's role in the system (hierarchical)
type Role string

// Resource represents a type of resource in the system
type Resource string

// Action represents an operation on a resource
type Action string

// Subject represents the authenticated user performing an action
type Subject struct {
	Role Role
}

// RoleDefinition defines a role and its privilege level
type RoleDefinition struct {
	Name  Role
	Level int
}
