package constants

import "time"

const (
	// PushBatchSize is the number of rows sent per remote upsert call.
	PushBatchSize = 50

	// PullPageLimit caps how many rows are pulled per table per sync cycle.
	// Larger deltas are picked up by subsequent syncs.
	PullPageLimit = 1000

	// WriteDebounce is how long the sync engine waits after the last local
	// write before firing a sync. Repeated writes restart the countdown.
	WriteDebounce = 3 * time.Second

	// InitialSyncDelay defers the first automatic sync after the dashboard
	// starts, so store initialization settles first.
	InitialSyncDelay = 3 * time.Second

	// ConnectivityTimeout bounds the pre-sync reachability probe.
	ConnectivityTimeout = 5 * time.Second

	// StreakScanDays is how far back the streak computation looks.
	StreakScanDays = 365

	// LeaderboardTieEpsilon: scores closer than this share a rank.
	LeaderboardTieEpsilon = 0.001
)

// Settings keys in the key/value settings table.
const (
	SettingLastSyncAt = "last_sync_at"
)
