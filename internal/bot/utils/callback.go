package utils

import "strings"

const callbackSep = ":"

// CallbackData joins an action and its arguments into a button payload.
func CallbackData(action string, args ...string) string {
	return strings.Join(append([]string{action}, args...), callbackSep)
}

// ParseCallback splits callback data produced by CallbackData. telebot
// prefixes inline button data with \f, which is dropped here.
func ParseCallback(data string) (action string, args []string) {
	data = strings.TrimPrefix(data, "\f")
	if data == "" {
		return "", nil
	}

	parts := strings.Split(data, callbackSep)
	return parts[0], parts[1:]
}
