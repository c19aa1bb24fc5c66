package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptAttempts bounds how often a blank answer is asked again.
const promptAttempts = 3

var errEmptyInput = errors.New("no value entered")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// GetSimpleText prints prompt to w and returns one trimmed line from reader.
// A final line without a newline is accepted; EOF with nothing read is an
// error.
//
//	Enter trakt client id
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n> ", prompt); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
	default:
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetRequiredText is GetSimpleText that asks again on blank answers, up to
// promptAttempts times.
func GetRequiredText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	for i := 0; i < promptAttempts; i++ {
		s, err := GetSimpleText(reader, prompt, w)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
	}
	return "", errEmptyInput
}

// GetSecret reads a value from the terminal without echo. Surrounding
// whitespace is dropped. The caller should wipe the returned slice.
func GetSecret(prompt string, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprintf(w, "%s: ", prompt); err != nil {
		return nil, err
	}
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, errEmptyInput
	}
	return trimmed, nil
}
