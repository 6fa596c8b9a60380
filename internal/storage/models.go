package storage

import "time"

// LatestKey is the primary key of the single stored snapshot row.
const LatestKey = "latest"

// Bureau holds metadata about a configured bureau.
type Bureau struct {
	Key       string    `json:"key" gorm:"primaryKey;column:key"`
	Name      string    `json:"name" gorm:"column:name"`
	URL       string    `json:"url" gorm:"column:url"`
	Group     string    `json:"group" gorm:"column:group_name"`
	Kind      string    `json:"kind" gorm:"column:kind"`
	Position  int       `json:"position" gorm:"column:position"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Bureau) TableName() string { return "bureaus" }

// RatesSnapshot stores the encoded payload of the latest collected snapshot.
type RatesSnapshot struct {
	Key        string    `json:"-" gorm:"primaryKey;column:key"`
	SnapshotID string    `json:"snapshot_id" gorm:"column:snapshot_id"`
	Payload    []byte    `json:"payload" gorm:"column:payload"`
	FetchedAt  time.Time `json:"fetched_at" gorm:"column:fetched_at"`
}

func (RatesSnapshot) TableName() string { return "rates_snapshots" }

// Setting is a runtime-tunable key/value pair, e.g. the refresh interval.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Setting) TableName() string { return "settings" }

// ScheduledJob records the outcome of the last run of a background job.
type ScheduledJob struct {
	Name           string    `json:"name" gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `json:"last_run_at" gorm:"column:last_run_at"`
	LastDurationMs int64     `json:"last_duration_ms" gorm:"column:last_duration_ms"`
	LastSuccess    int       `json:"last_success" gorm:"column:last_success"`
	LastError      string    `json:"last_error,omitempty" gorm:"column:last_error"`
}

func (ScheduledJob) TableName() string { return "scheduled_jobs" }
