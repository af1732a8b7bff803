package auth

import (
	"errors"
	"strings"

	"github.com/fastygo/taskclient/domain"
)

// Form identifies which form a server error is reported on.
type Form string

const (
	FormLogin    Form = "login"
	FormRegister Form = "register"
)

// Keyword lists for the legacy heuristic. The API only guarantees a free-text
// message, in English or Portuguese.
var (
	passwordTerms = []string{"password", "senha", "credential", "credenciais", "inválid", "incorrect", "incorret"}
	emailTerms    = []string{"email", "e-mail", "user", "usuário", "not found", "não encontrado", "already exists", "já existe"}
	nameTerms     = []string{"name", "nome"}
)

var formFields = map[Form]map[string]bool{
	FormLogin:    {"email": true, "password": true},
	FormRegister: {"name": true, "email": true, "password": true, "confirmPassword": true},
}

// Classify attributes a failed sign-in to one input of form. A field named
// by the server wins; otherwise the message is matched against keyword
// lists. This is best-effort: unknown wording lands on password for login
// and email for registration.
func Classify(form Form, err error) domain.FieldError {
	msg := domain.Message(err)

	var dErr *domain.Error
	if errors.As(err, &dErr) && formFields[form][dErr.Field] {
		return domain.FieldError{Field: dErr.Field, Message: msg}
	}

	lower := strings.ToLower(msg)
	field := "email"
	switch {
	case containsAny(lower, passwordTerms):
		field = "password"
	case containsAny(lower, emailTerms):
		field = "email"
	case form == FormRegister && containsAny(lower, nameTerms):
		field = "name"
	case form == FormLogin:
		field = "password"
	}
	return domain.FieldError{Field: field, Message: msg}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
