package redis

import (
	"fmt"

	"github.com/dragonworld-game/server/internal/model"
)

// Key prefix for all profile data
const keyPrefix = "dragonworld"

// profileKey returns the Redis key for a Profile
func profileKey(id model.AccountID) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, id)
}

// credentialKey returns the Redis key for a Credential
func credentialKey(id model.AccountID) string {
	return fmt.Sprintf("%s:credential:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> account_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}
