package shared

import "errors"

// UserSafeMessage converts internal errors into copy safe to show end users.
// Anything unrecognised collapses into a generic message so storage details
// never leak into a flash notice.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Email ou senha incorretos"
	case errors.Is(err, ErrEmailTaken):
		return "Este email já está cadastrado. Tente fazer login."
	case errors.Is(err, ErrAccessDenied):
		return "Você não tem permissão para acessar esta área"
	case errors.Is(err, ErrNotFound):
		return "Registro não encontrado"
	default:
		return "Algo deu errado. Tente novamente."
	}
}
