package i18n

// Stable machine-readable error codes.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInternal            = "INTERNAL"
	CodeRateLimited         = "RATE_LIMITED"
	CodeRouteNotFound       = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
)

// Messages maps error codes to human-readable text for one locale.
type Messages map[string]string

// NewMessages returns the message table for locale.
func NewMessages(locale string) Messages {
	if Match(locale) == EnglishUS {
		return messagesEN
	}
	return messagesPT
}

// For returns the message for code, falling back to the internal error text.
func (m Messages) For(code string) string {
	if msg, ok := m[code]; ok {
		return msg
	}
	return m[CodeInternal]
}

var messagesPT = Messages{
	CodeInvalidInput:        "Dados inválidos",
	CodeUnauthenticated:     "Não autorizado",
	CodeNotFound:            "Título não encontrado",
	CodeConflict:            "Você já votou neste título",
	CodeUpstreamUnavailable: "Serviço de catálogo indisponível",
	CodeInternal:            "Erro interno do servidor",
	CodeRateLimited:         "Muitas requisições, tente novamente em instantes",
	CodeRouteNotFound:       "Rota não encontrada",
	CodeMethodNotAllowed:    "Método não permitido",
}

var messagesEN = Messages{
	CodeInvalidInput:        "Invalid input",
	CodeUnauthenticated:     "Unauthorized",
	CodeNotFound:            "Title not found",
	CodeConflict:            "You have already voted for this title",
	CodeUpstreamUnavailable: "Catalog service unavailable",
	CodeInternal:            "Internal server error",
	CodeRateLimited:         "Too many requests, please try again shortly",
	CodeRouteNotFound:       "Route not found",
	CodeMethodNotAllowed:    "Method not allowed",
}
