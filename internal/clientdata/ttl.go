package clientdata

import "time"

// TTL constants for different data types.
const (
	// The item catalog only changes with game updates.
	TTLItemCatalog = 24 * time.Hour
	// Recipes rarely change.
	TTLRecipe = 7 * 24 * time.Hour
	// Username -> uuid mappings change only on rename.
	TTLPlayerIdentity = 24 * time.Hour
)
