// Package messages holds the tea.Msg types passed between the views of the
// chat interface.
package messages

import (
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// ViewType names a screen of the app.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewChat
	ViewHelp
)

var viewNames = [...]string{
	ViewMenu: "menu",
	ViewChat: "chat",
	ViewHelp: "help",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged asks the app to show another screen.
type ViewChanged struct {
	View ViewType
}

// AnswerReceived is the outcome of one question. Err is set instead of
// Result when the pipeline failed.
type AnswerReceived struct {
	Query  string
	Result *domain.QueryResult
	Err    error
}

// HistoryLoaded carries the stored turns of SessionID, oldest first.
type HistoryLoaded struct {
	SessionID string
	Turns     []domain.ConversationTurn
	Err       error
}

// SessionStarted points the chat at a new session id. Earlier turns of
// that id, if any, are loaded.
type SessionStarted struct {
	SessionID string
}

// FileSaved reports where a generated attachment was written.
type FileSaved struct {
	Path string
	Err  error
}

// ErrorOccurred reports a failure outside a question, such as a history
// load.
type ErrorOccurred struct {
	Err error
}

type Quit struct{}
