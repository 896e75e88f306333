package logging

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Log messages may carry markup like <green>Starting</> which is
// rendered with ANSI colors on a terminal and stripped everywhere
// else (log files, pipes).
var (
	tag_regex = regexp.MustCompile(
		`<(green|red|yellow|cyan|blue|magenta)>((?s).*?)</>`)

	ansi_codes = map[string]string{
		"red":     "\033[31m",
		"green":   "\033[32m",
		"yellow":  "\033[33m",
		"blue":    "\033[34m",
		"magenta": "\033[35m",
		"cyan":    "\033[36m",
	}
)

func clearTag(message string) string {
	return tag_regex.ReplaceAllString(message, "$2")
}

func colorTag(message string) string {
	return tag_regex.ReplaceAllStringFunc(
		message, func(match string) string {
			parts := tag_regex.FindStringSubmatch(match)
			return ansi_codes[parts[1]] + parts[2] + "\033[0m"
		})
}

func isTerminal(fd *os.File) bool {
	return isatty.IsTerminal(fd.Fd()) || isatty.IsCygwinTerminal(fd.Fd())
}

// Formatter renders stderr lines as "[LEVEL] <time> message".
type Formatter struct {
	DisableColor bool
}

func (self *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := &bytes.Buffer{}

	message := entry.Message
	if self.DisableColor {
		message = clearTag(message)
	} else {
		message = colorTag(message)
	}

	fmt.Fprintf(b, "[%s] %s %s\n",
		strings.ToUpper(entry.Level.String()),
		entry.Time.Format(time.RFC3339),
		message)

	return b.Bytes(), nil
}

// tagStrippingFormatter removes color markup before delegating to a
// file formatter so markup never reaches log files.
type tagStrippingFormatter struct {
	next logrus.Formatter
}

func (self *tagStrippingFormatter) Format(
	entry *logrus.Entry) ([]byte, error) {

	// Copy the entry - the stderr formatter still needs the tags.
	clean := *entry
	clean.Message = clearTag(entry.Message)
	return self.next.Format(&clean)
}
