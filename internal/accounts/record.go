// internal/accounts/record.go
package accounts

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// LineSeparator terminates every record in the queue files. Files produced
// by existing tooling use CRLF, so it is kept for round-trip compatibility.
const LineSeparator = "\r\n"

// FieldSeparator joins the fields of one record.
const FieldSeparator = ":"

// MinPasswordLength is the shortest password the target accepts.
const MinPasswordLength = 9

// ExampleLine seeds a freshly created pending file.
const ExampleLine = "login:password:mail@example.com"

// ErrAccountNotFound is returned when a login to relocate is no longer in the pending file.
var ErrAccountNotFound = errors.New("account not found in pending file")

// Record is one account credential set read from a queue file.
type Record struct {
	Login    string
	Password string
	// Mail is empty for login:password records read from the registered file.
	Mail string
}

// Line renders the record in queue file layout, without separator.
func (r Record) Line() string {
	if r.Mail == "" {
		return r.Login + FieldSeparator + r.Password
	}
	return strings.Join([]string{r.Login, r.Password, r.Mail}, FieldSeparator)
}

// ParseError reports the first invalid line of a queue file. When it is
// returned no record of that file is usable.
type ParseError struct {
	Path   string
	Line   int
	Login  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse account '%s' on line %d of %s: %s", e.Login, e.Line, e.Path, e.Reason)
}

// parseLine splits and validates a single non-blank line. Checks run in a
// fixed order: login, mail, password. requireMail is false for the
// login:password layout accepted when reusing the registered file.
func parseLine(line string, requireMail bool) (Record, string) {
	fields := strings.Split(line, FieldSeparator)

	maxFields := 3
	if len(fields) > maxFields {
		return Record{Login: fields[0]}, fmt.Sprintf("expected login:password:mail, got %d fields", len(fields))
	}
	for len(fields) < maxFields {
		fields = append(fields, "")
	}

	rec := Record{Login: fields[0], Password: fields[1], Mail: fields[2]}

	if rec.Login == "" {
		return rec, "login cant be empty"
	}
	if (requireMail || rec.Mail != "") && !strings.Contains(rec.Mail, "@") {
		return rec, `mail must contain "@" symbol`
	}
	if utf8.RuneCountInString(rec.Password) < MinPasswordLength {
		return rec, fmt.Sprintf("password must contain at least %d characters", MinPasswordLength)
	}
	return rec, ""
}

// loginOf returns the login field of a queue line.
func loginOf(line string) string {
	login, _, _ := strings.Cut(line, FieldSeparator)
	return login
}
