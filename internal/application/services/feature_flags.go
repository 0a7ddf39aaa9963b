package services

import (
	"os"
)

type FeatureFlags struct {
	serverAnnouncementsEnabled bool
	searchIndexEnabled         bool
}

func NewFeatureFlags() *FeatureFlags {
	announcements := os.Getenv("FEATURE_SERVER_ANNOUNCEMENTS") != "false"
	search := os.Getenv("FEATURE_SEARCH_INDEX") != "false"

	return &FeatureFlags{
		serverAnnouncementsEnabled: announcements,
		searchIndexEnabled:         search,
	}
}

func (f *FeatureFlags) ServerAnnouncementsEnabled() bool {
	return f.serverAnnouncementsEnabled
}

func (f *FeatureFlags) SearchIndexEnabled() bool {
	return f.searchIndexEnabled
}
