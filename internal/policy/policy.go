// Package policy decides who may do what to a project. It is independent
// of transport and storage.
package policy

import "github.com/ZertGraf/observ/internal/domain"

type Operation int

const (
	OpView Operation = iota
	OpList
	OpViewMembers
	OpCreate
	OpEdit
	OpDelete
	OpAddMember
	OpRemoveMember
	OpJoin
)

func (o Operation) String() string {
	switch o {
	case OpView:
		return "view"
	case OpList:
		return "list"
	case OpViewMembers:
		return "view_members"
	case OpCreate:
		return "create"
	case OpEdit:
		return "edit"
	case OpDelete:
		return "delete"
	case OpAddMember:
		return "add_member"
	case OpRemoveMember:
		return "remove_member"
	case OpJoin:
		return "join"
	default:
		return "unknown"
	}
}

// Allowed reports whether actor may perform op on project. A nil actor is
// anonymous. project may be nil for operations that do not target one.
func Allowed(actor *domain.User, project *domain.Project, op Operation) bool {
	return Authorize(actor, project, op) == nil
}

// Authorize is Allowed with the reason for a denial: ErrUnauthenticated
// for anonymous actors, ErrUnauthorized for missing tier or ownership and
// ErrProjectInactive when joining a closed project.
func Authorize(actor *domain.User, project *domain.Project, op Operation) error {
	switch op {
	case OpView, OpList, OpViewMembers:
		return nil
	}

	if actor == nil {
		return domain.ErrUnauthenticated
	}

	switch op {
	case OpCreate:
		return nil

	case OpEdit, OpDelete:
		if actor.IsAdmin() || isOwner(actor, project) {
			return nil
		}
		return domain.ErrUnauthorized

	case OpAddMember, OpRemoveMember:
		if actor.IsManager() || isOwner(actor, project) {
			return nil
		}
		return domain.ErrUnauthorized

	case OpJoin:
		// gated by project state, not identity
		if project != nil && project.Active {
			return nil
		}
		return domain.ErrProjectInactive
	}

	return domain.ErrUnauthorized
}

func isOwner(actor *domain.User, project *domain.Project) bool {
	return project != nil && actor.ID == project.OwnerID
}
