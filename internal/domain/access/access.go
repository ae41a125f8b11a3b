// Package access holds the access-control decisions for user records.
// Every function is pure: no I/O, no logging.
package access

import "github.com/oksasatya/go-user-management/internal/domain/entity"

// CanView allows admins to view any record and everyone else to view only their own.
func CanView(requester *entity.User, targetID string) bool {
	if requester == nil {
		return false
	}
	return requester.IsAdmin() || requester.ID == targetID
}

// CanListAll allows only admins to list or search every record.
func CanListAll(requester *entity.User) bool {
	return requester != nil && requester.IsAdmin()
}

// CanBlock follows the CanView rule, so any user may block their own account.
func CanBlock(requester *entity.User, targetID string) bool {
	return CanView(requester, targetID)
}
