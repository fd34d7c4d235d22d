package models

import "strings"

// CommandType enumerates supported worker command categories.
type CommandType string

const (
	CommandDaily   CommandType = "harian"
	CommandEggs    CommandType = "telur"
	CommandWeight  CommandType = "timbang"
	CommandIncome  CommandType = "masuk"
	CommandExpense CommandType = "keluar"
	CommandStatus  CommandType = "status"
	CommandAlerts  CommandType = "peringatan"
	CommandHelp    CommandType = "bantuan"
	CommandUnknown CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"harian":     CommandDaily,
	"mortality":  CommandDaily,
	"telur":      CommandEggs,
	"eggs":       CommandEggs,
	"timbang":    CommandWeight,
	"weight":     CommandWeight,
	"masuk":      CommandIncome,
	"sales":      CommandIncome,
	"keluar":     CommandExpense,
	"expenses":   CommandExpense,
	"status":     CommandStatus,
	"peringatan": CommandAlerts,
	"alerts":     CommandAlerts,
	"bantuan":    CommandHelp,
	"help":       CommandHelp,
}

// Command represents a parsed worker instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// IsCommand reports whether the text is addressed to the command dispatcher.
func IsCommand(message string) bool {
	return strings.HasPrefix(strings.TrimSpace(message), "/")
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	normalized := strings.TrimSpace(strings.ToLower(message))

	if normalized == "" {
		return Command{Type: CommandUnknown, Raw: message}
	}

	tokens := strings.Fields(normalized)
	cmd := Command{Raw: message}

	head := strings.TrimPrefix(tokens[0], "/")
	if t, ok := commandAliases[head]; ok {
		cmd.Type = t
	} else {
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
