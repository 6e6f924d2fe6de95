package logging

// Event identifiers attached to log entries under the "event" field.
const (
	EventStorageLoadFailed   = "STORAGE_LOAD_FAILED"
	EventStorageSaveFailed   = "STORAGE_SAVE_FAILED"
	EventStorageInvalid      = "STORAGE_INVALID_PAYLOAD"
	EventStorageFallback     = "STORAGE_BACKUP_FALLBACK"
	EventSyncLoaded          = "SYNC_LOADED"
	EventSyncInvalidPayload  = "SYNC_INVALID_PAYLOAD"
	EventSyncBlockedDataLoss = "SYNC_BLOCKED_DATA_LOSS"
	EventSyncRemoteApplied   = "SYNC_REMOTE_APPLIED"
	EventSyncMigrated        = "SYNC_MIGRATED"
	EventSyncSubscribeFailed = "SYNC_SUBSCRIBE_FAILED"
	EventStateMissingRef     = "STATE_MISSING_REFERENCE"
	EventSweepDeleted        = "SWEEP_AUTO_DELETED"
	EventSweepRecurred       = "SWEEP_RECURRING_RESET"
	EventBackupFailed        = "BACKUP_FAILED"
	EventBackupCreated       = "BACKUP_CREATED"
	EventBackupRestored      = "BACKUP_RESTORED"
	EventBreakerStateChange  = "CIRCUIT_BREAKER_STATE_CHANGE"
	EventServerStart         = "SERVER_START"
	EventClientConnected     = "WS_CLIENT_CONNECTED"
	EventClientDropped       = "WS_CLIENT_DROPPED"
)
