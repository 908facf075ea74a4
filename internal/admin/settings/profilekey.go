package settings

import "strings"

// profileKeySep joins a profile ID and a setting key into one storage key.
// Per-profile overrides flow through the same cache and per-key write queue
// as default-profile values.
const profileKeySep = ":"

// ProfileKey addresses the override of a profile-scoped setting. The empty
// profile is the default profile and maps to the bare key.
func ProfileKey(profile, key string) string {
	if profile == "" {
		return key
	}
	return profile + profileKeySep + key
}

// SplitProfileKey reverses ProfileKey. Keys without a profile qualifier
// return an empty profile.
func SplitProfileKey(qualified string) (profile, key string) {
	if i := strings.Index(qualified, profileKeySep); i >= 0 {
		return qualified[:i], qualified[i+1:]
	}
	return "", qualified
}
