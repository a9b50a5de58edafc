// Package authz holds the ownership check applied before any mutation of an
// owned record.
package authz

import "github.com/placekeeper/placekeeper/internal/common"

// AuthorizeOwner allows the mutation only when the authenticated identity is
// the record's owner. There are no roles and no elevation: anything else is
// common.ErrorForbidden.
func AuthorizeOwner(requesterID, ownerID string) error {
	if requesterID == "" || requesterID != ownerID {
		return common.ErrorForbidden
	}
	return nil
}
