package domain

// Settings is the persisted slice of UI preferences.
type Settings struct {
	AutoDeleteHours int  `json:"autoDeleteHours"`
	IsEditMode      bool `json:"isEditMode"`
}

// BackupVersion is written into every full backup file.
const BackupVersion = "1.0.0"

// BackupFile is the downloadable full snapshot of board, users and settings.
type BackupFile struct {
	Version   string   `json:"version"`
	Timestamp string   `json:"timestamp"`
	Board     Board    `json:"board"`
	Users     Roster   `json:"users"`
	Settings  Settings `json:"settings"`
}
