package models

// ErrorEntry is a localized message set of the error catalog
type ErrorEntry struct {
	Code int    `json:"code" yaml:"code"`
	EN   string `json:"en" yaml:"en"`
	RU   string `json:"ru" yaml:"ru"`
	UZ   string `json:"uz" yaml:"uz"`
}

// Message returns the message for lang, falling back to the first
// non-empty translation in en, ru, uz order.
func (e ErrorEntry) Message(lang string) string {
	switch lang {
	case "ru":
		if e.RU != "" {
			return e.RU
		}
	case "uz":
		if e.UZ != "" {
			return e.UZ
		}
	}
	for _, msg := range []string{e.EN, e.RU, e.UZ} {
		if msg != "" {
			return msg
		}
	}
	return ""
}
