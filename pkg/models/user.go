package models

// User represents a Telegram user registered with the bot
type User struct {
	ID            int64   `json:"id" db:"user_id"` // Telegram User ID
	Name          string  `json:"name" db:"name"`
	LanguageLevel *string `json:"language_level" db:"language_level"`
	ProgressJSON  string  `json:"progress_json" db:"progress_json"`
}
