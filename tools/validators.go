package tools

import (
	"encoding/json"
	"regexp"
	"strings"
)

func ValidateEmail(email string) bool {
	re := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	return re.MatchString(email)
}

func CheckPassword(password string) string {
	if len(password) < 6 {
		return "password"
	}
	return ""
}

// ValidateJSONObject confere se o payload é um objeto JSON ({...}).
// O conteúdo em si é opaco; só o "formato largo" é validado antes de gravar.
func ValidateJSONObject(raw []byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed[0] != '{' {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil
}
