package dialog

import "strings"

const (
	msgWelcome      = "Hi! I'm a bot that helps you follow VR/AR news.\n"
	msgFirstContact = "This is our first meeting, here are the default search settings:\n%s"
	msgKnownUser    = "I already have your search settings saved:\n%s"

	msgSearchIntro     = "Need news matching specific parameters? No problem."
	msgHeadlinesIntro  = "Let's find the latest hot news."
	msgSearchHeader    = "Here is the news I found"
	msgHeadlinesHeader = "The latest hot news"

	msgCurrentSettings = "Current search settings:\n%s"
	msgShowSettings    = "This is what you already told me:\n%s"
	msgFinalSettings   = "Final parameter values:\n%s\nUntil next time!"

	msgAskValue     = "Enter a value for the parameter"
	msgValueSaved   = "Parameter saved."
	msgInvalidValue = "That is not a valid value for %s, please try again"

	msgReturnToMenu   = "Returning to the main menu"
	msgInvalidCommand = "Invalid command"
	msgSearchFailed   = "Search failed, please try again later"
	msgNoResults      = "Nothing found for the current settings"
)

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
