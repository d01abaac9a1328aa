package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Query paths need a live database; the empty-id guards do not.

func TestFindByIDRequiresAccountID(t *testing.T) {
	repo := NewAccountRepo(nil)
	for _, id := range []string{"", "   "} {
		_, err := repo.FindByID(context.Background(), id)
		assert.ErrorIs(t, err, ErrAccountIDRequired)
	}
}

func TestListAcceptedFriendIDsRequiresAccountID(t *testing.T) {
	repo := NewFriendRepo(nil)
	_, err := repo.ListAcceptedFriendIDs(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrAccountIDRequired)
}
