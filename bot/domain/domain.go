// Package domain holds the bot's persistent models and the failure kinds
// handlers branch on.
package domain

import (
	"database/sql"
	"errors"
	"fmt"
)

// User is a registered bot user. A user stays inactive until the verification
// code generated at registration has been submitted back.
type User struct {
	ID         int64          `db:"id"`
	TelegramID int64          `db:"telegram_id"`
	FullName   string         `db:"full_name"`
	Username   sql.NullString `db:"username"`
	VerifyCode string         `db:"verify_code"`
	Verified   bool           `db:"verified"`
}

// String renders the user the way the user-list scene shows it.
func (u User) String() string {
	return fmt.Sprintf("telegram_id:%d, name:%s", u.TelegramID, u.FullName)
}

// SearchCommand is a saved per-user search shortcut. Command is always
// lowercase and starts with "/".
type SearchCommand struct {
	ID          int64          `db:"id"`
	UserID      int64          `db:"user_id"`
	Command     string         `db:"command"`
	Keyword     string         `db:"keyword"`
	Description sql.NullString `db:"description"`
}

// String renders the command the way the main menu lists it.
func (c SearchCommand) String() string {
	if c.Description.Valid && c.Description.String != "" {
		return fmt.Sprintf("%s = %s", c.Command, c.Description.String)
	}
	return c.Command
}

// Failure kinds surfaced by services. Handlers match them with errors.Is to
// pick the next scene; anything else is reported to the user verbatim.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserNotActive        = errors.New("user not active")
	ErrVerifyCodeWrong      = errors.New("verify code wrong")
	ErrWrongCommandFormat   = errors.New("wrong command format")
	ErrCommandAlreadyExists = errors.New("command already exists")
	ErrCommandNotFound      = errors.New("command not found")
)
