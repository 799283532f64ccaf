package bot

import (
	"vrnews-bot/internal/dialog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	helpMessage = "Available commands:\n" +
		"<b>/start</b> - start working with the bot\n" +
		"<b>/help</b> - show this help message\n" +
		"<b>/contact</b> - developer contact\n" +
		"<b>/show_settings</b> - show your saved search settings\n" +
		"Use the keyboard the bot offers for the main features"
	contactMessage = "Developer contact: @vrnewsbot_dev"
	errorMessage   = "Something went wrong, please try again"
)

func oneTimeKeyboard(rows ...[]tgbotapi.KeyboardButton) tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true
	return keyboard
}

var mainKeyboard = oneTimeKeyboard(
	tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Search news")),
	tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Top headlines")),
	tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Settings")),
)

var searchKeyboard = oneTimeKeyboard(
	tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Fetch news")),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("Settings"),
		tgbotapi.NewKeyboardButton("Back"),
	),
)

var settingsKeyboard = oneTimeKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("Keywords"),
		tgbotapi.NewKeyboardButton("Sort by"),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("From date"),
		tgbotapi.NewKeyboardButton("To date"),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("Language"),
		tgbotapi.NewKeyboardButton("Country"),
	),
	tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Save")),
)

// keyboardFor maps an engine keyboard id to its Telegram markup.
func keyboardFor(name string) (tgbotapi.ReplyKeyboardMarkup, bool) {
	switch name {
	case dialog.KeyboardMain:
		return mainKeyboard, true
	case dialog.KeyboardSearch:
		return searchKeyboard, true
	case dialog.KeyboardSettings:
		return settingsKeyboard, true
	}
	return tgbotapi.ReplyKeyboardMarkup{}, false
}
