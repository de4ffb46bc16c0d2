package core

// error_messages.go maps parse errors to user-facing messages with codes
// that can be quoted to support.
//
// # Structural Errors (CSV001-CSV099)
//
//	CSV001 - Empty line            Patterns: ErrEmptyLine
//	CSV002 - Missing "sep=" line   Patterns: ErrMissingSeparator
//	CSV003 - Unterminated quote    Patterns: ErrUnterminatedQuote
//	CSV004 - Wrong field count     Patterns: ErrFieldCount
//	CSV005 - Bad header            Patterns: ErrNoHeaders, ErrEmptyHeader, ErrDuplicateHeader
//	CSV006 - Header mismatch       Patterns: ErrHeaderCount, ErrMissingHeaders, ErrMissingValue
//	CSV007 - Value too long        Patterns: ErrFieldTooLong
//	CSV008 - Encoding error        Patterns: "encoding error", "unknown encoding"
//
// # Field Errors (FLD001-FLD099)
//
//	FLD001 - Conversion failed     Patterns: ErrConversion
//	FLD002 - Invalid enum          Patterns: ErrInvalidEnum
//	FLD003 - Missing member        Patterns: ErrMissingMember
//	FLD004 - Required value        Patterns: ErrRequired
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid configuration Patterns: ErrInvalidConfig
//	CFG002 - Unknown layout        Patterns: "unknown layout"
//
// # Service Errors (SRV001-SRV099)
//
//	SRV001 - Busy                  Patterns: ErrTooManyPasses
//	SRV002 - Request cancelled     Patterns: "context canceled"
//	SRV003 - Request timeout       Patterns: "context deadline exceeded"
//	SRV004 - No input              Patterns: "no file provided"
//	SRV005 - Input too large       Patterns: "request body too large"
//
// # Default (ERR000)
//
// Any unrecognized error maps to ERR000. The technical error should be logged.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage contains a user-friendly error message with an action and a code.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorMatch maps either a sentinel error or a substring to a message.
// Sentinels are checked with errors.Is; patterns against the lowercased text.
type errorMatch struct {
	sentinels []error
	pattern   string
	msg       UserMessage
}

var errorMatches = []errorMatch{
	{
		sentinels: []error{ErrEmptyLine},
		msg:       UserMessage{"The file contains an empty line", "Remove blank lines or enable ignoring empty lines", "CSV001"},
	},
	{
		sentinels: []error{ErrMissingSeparator},
		msg:       UserMessage{`The file does not start with a "sep=" line`, `Add a "sep=," line at the top of the file`, "CSV002"},
	},
	{
		sentinels: []error{ErrUnterminatedQuote},
		msg:       UserMessage{"A quoted value is never closed", "Check for a missing closing quote", "CSV003"},
	},
	{
		sentinels: []error{ErrFieldCount},
		msg:       UserMessage{"A line has the wrong number of values", "Ensure every line has the same number of columns", "CSV004"},
	},
	{
		sentinels: []error{ErrNoHeaders, ErrEmptyHeader, ErrDuplicateHeader},
		msg:       UserMessage{"The header line is invalid", "Ensure every column has a unique, non-empty name", "CSV005"},
	},
	{
		sentinels: []error{ErrHeaderCount, ErrMissingHeaders, ErrMissingValue},
		msg:       UserMessage{"The columns do not match the expected layout", "Verify column headers match the layout exactly", "CSV006"},
	},
	{
		sentinels: []error{ErrFieldTooLong},
		msg:       UserMessage{"A value is longer than allowed", "Shorten the value or enable truncation", "CSV007"},
	},
	{
		pattern: "encoding",
		msg:     UserMessage{"The file encoding is not supported", "Save the file as UTF-8", "CSV008"},
	},
	{
		sentinels: []error{ErrConversion},
		msg:       UserMessage{"A value could not be converted", "Check number, date and boolean formats", "FLD001"},
	},
	{
		sentinels: []error{ErrInvalidEnum},
		msg:       UserMessage{"Value is not in the allowed list", "Check the allowed values for this field", "FLD002"},
	},
	{
		sentinels: []error{ErrMissingMember},
		msg:       UserMessage{"A column has no matching record member", "Remove the column or add the member", "FLD003"},
	},
	{
		sentinels: []error{ErrRequired},
		msg:       UserMessage{"Required field is empty", "Ensure all required columns have values", "FLD004"},
	},
	{
		sentinels: []error{ErrInvalidConfig},
		msg:       UserMessage{"The parse settings are invalid", "Review the delimiter, quote and field settings", "CFG001"},
	},
	{
		pattern: "unknown layout",
		msg:     UserMessage{"Unknown layout", "Choose one of the registered layouts", "CFG002"},
	},
	{
		sentinels: []error{ErrTooManyPasses},
		msg:       UserMessage{"System is busy processing other files", "Please wait a moment and try again", "SRV001"},
	},
	{
		pattern: "context canceled",
		msg:     UserMessage{"Request was cancelled", "Please try again", "SRV002"},
	},
	{
		pattern: "context deadline exceeded",
		msg:     UserMessage{"Request timed out", "Try a smaller file or check your connection", "SRV003"},
	},
	{
		pattern: "no file provided",
		msg:     UserMessage{"No file was provided", "Send a file field or a request body", "SRV004"},
	},
	{
		pattern: "request body too large",
		msg:     UserMessage{"File exceeds the maximum size", "Split the file into smaller chunks", "SRV005"},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the default message for unrecognized errors.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range errorMatches {
		for _, s := range m.sentinels {
			if errors.Is(err, s) {
				return m.msg
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, m := range errorMatches {
		if m.pattern != "" && strings.Contains(errStr, m.pattern) {
			return m.msg
		}
	}

	return defaultMessage
}

// FormatUserError returns a single line suitable for display.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
