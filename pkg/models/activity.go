package models

// ActivitySummary is the per-activity record kept in a user's progress blob
type ActivitySummary struct {
	Learned  int  `json:"learned"`
	Total    int  `json:"total"`
	Complete bool `json:"complete"`
}

// ProgressBlob is the decoded form of users.progress_json
type ProgressBlob map[string]ActivitySummary
