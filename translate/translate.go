// Package translate renders user-facing LS-8 messages in the locale of the
// running process.
package translate

import (
	"log"
	"os"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

// LANG_ENV overrides the detected process locale when set.
const LANG_ENV = "LS8_LANG"

var printer *message.Printer

func init() {
	printer = message.NewPrinter(message.MatchLanguage(Locales()...))
}

// Locales returns the preferred locales, most preferred first.
func Locales() (locales []string) {
	if lang := os.Getenv(LANG_ENV); len(lang) != 0 {
		return []string{lang, "en-US"}
	}

	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("ls8: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
