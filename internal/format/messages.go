package format

import (
	"fmt"
	"strings"
)

// Plain-text notices
const (
	WelcomeText = "Hello! Welcome to the English Pronunciation Bot.\n" +
		"Type /activity1 to start practicing IPA symbols, or /progress to view your progress."

	HelpText = "Commands:\n" +
		"/activity1 - practice reading IPA transcriptions\n" +
		"/progress - show your progress\n" +
		"/quit - leave the current activity (typing \"quit\" works too)\n\n" +
		"During an activity: Listen plays the word, Show reveals it, Next moves on."

	ActivityCompleteText  = "🎉 Activity Complete! 🎉 You have learned all words in Activity 1."
	SessionCompleteText   = "Session complete! Type /activity1 to practice more."
	QuitText              = "Exiting Activity 1. Type /activity1 to start again."
	NoActiveSessionText   = "There is no activity in progress. Type /activity1 to start one."
	Activity2Text         = "Activity 2 is not available yet."
	Activity2ProgressText = "Activity 2 progress is not implemented yet."
	NothingLearnedText    = "You haven't learned any words in Activity 1 yet."
	UnknownCommandText    = "Unknown command. Type /help to see what I can do."

	AudioFailedText      = "Sorry, I couldn't produce audio for this word right now."
	StorageFailedText    = "Sorry, I couldn't reach your progress data. Please try again."
	VocabularyFailedText = "Sorry, the word list is unavailable right now."
	ErrorText            = "Something went wrong. Please try again."
)

// Progress callback identifiers
const (
	ActionProgressActivity1 = "progress_activity1"
	ActionProgressActivity2 = "progress_activity2"
)

// Status mark for an activity in the progress menu
func statusMark(complete bool) string {
	if complete {
		return "✅"
	}
	return "🔄"
}

// ProgressMenu renders the /progress overview and its buttons
func ProgressMenu(activity1Complete bool) (string, [][]Button) {
	status1 := statusMark(activity1Complete)
	status2 := statusMark(false) // Activity 2 is never implemented

	text := "Your progress:\n\n" +
		fmt.Sprintf("Activity 1 %s\n", status1) +
		fmt.Sprintf("Activity 2 %s\n\n", status2) +
		"Tap a button to see details."

	buttons := [][]Button{
		{{Text: "Activity 1 " + status1, Action: ActionProgressActivity1}},
		{{Text: "Activity 2 " + status2, Action: ActionProgressActivity2}},
	}
	return text, buttons
}

// LearnedWords renders the Activity 1 details view
func LearnedWords(words []string) string {
	if len(words) == 0 {
		return NothingLearnedText
	}
	return fmt.Sprintf("Activity 1 - Learned words (%d):\n%s", len(words), strings.Join(words, "\n"))
}
