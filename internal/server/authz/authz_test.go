package authz

import (
	"errors"
	"testing"

	"github.com/placekeeper/placekeeper/internal/common"
)

func TestAuthorizeOwner(t *testing.T) {
	tests := []struct {
		name      string
		requester string
		owner     string
		wantErr   bool
	}{
		{name: "owner allowed", requester: "u-1", owner: "u-1"},
		{name: "non-owner forbidden", requester: "u-2", owner: "u-1", wantErr: true},
		{name: "empty requester forbidden", requester: "", owner: "u-1", wantErr: true},
		{name: "both empty forbidden", requester: "", owner: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeOwner(tt.requester, tt.owner)
			if tt.wantErr {
				if !errors.Is(err, common.ErrorForbidden) {
					t.Fatalf("want ErrorForbidden, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
