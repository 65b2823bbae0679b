// Package command classifies console input into client commands.
package command

import "strings"

// Code identifies a console command
type Code int

const (
	CodeUnrecognized Code = iota
	CodeQuit
	CodeGreet
	CodeDisconnect
	CodeSendCustom
)

// String returns the string representation of Code
func (c Code) String() string {
	switch c {
	case CodeQuit:
		return "QUIT"
	case CodeGreet:
		return "GREET"
	case CodeDisconnect:
		return "DISCONNECT"
	case CodeSendCustom:
		return "SEND_CUSTOM"
	default:
		return "UNRECOGNIZED"
	}
}

// Greeting is the payload written by the greet command.
const Greeting = "Hello!"

// Command is a single trimmed console token.
type Command struct {
	Code Code
	Text string
}

// Parse trims surrounding whitespace from input and classifies it.
// Matching is case-sensitive. Text always carries the trimmed input.
func Parse(input string) Command {
	text := strings.TrimSpace(input)
	return Command{Code: codeOf(text), Text: text}
}

// IsEmpty reports whether the command carries no text at all.
func (c Command) IsEmpty() bool {
	return c.Text == ""
}

func codeOf(text string) Code {
	switch text {
	case "Q":
		return CodeQuit
	case "H":
		return CodeGreet
	case "D":
		return CodeDisconnect
	case "S":
		return CodeSendCustom
	default:
		return CodeUnrecognized
	}
}

// Help lists the recognized commands in display order.
func Help() []string {
	return []string{
		"[Q] to quit",
		"[H] to send 'Hello'",
		"[D] to disconnect",
		"[S] to send custom string",
	}
}
