package checkout

import "strings"

// DeclineCode is the reason the backend gives for a refused payment.
type DeclineCode string

const (
	DeclineInsufficientFunds DeclineCode = "insufficient_funds"
	DeclineCardDeclined      DeclineCode = "card_declined"
	DeclineLostCard          DeclineCode = "lost_card"
	DeclineStolenCard        DeclineCode = "stolen_card"
	DeclineExpiredCard       DeclineCode = "expired_card"
	DeclineIncorrectCVC      DeclineCode = "incorrect_cvc"
	DeclineProcessingError   DeclineCode = "processing_error"
	DeclineLimitExceeded     DeclineCode = "limit_exceeded"
	DeclineUnknown           DeclineCode = "unknown"
)

var remedies = map[DeclineCode][]string{
	DeclineInsufficientFunds: {
		"Intenta con otra tarjeta o método de pago.",
		"Usa el saldo de tu billetera para cubrir parte del total.",
	},
	DeclineCardDeclined: {
		"Verifica los datos de la tarjeta.",
		"Intenta con otra tarjeta o método de pago.",
	},
	DeclineLostCard: {
		"Comunícate con tu banco.",
		"Intenta con otra tarjeta o método de pago.",
	},
	DeclineStolenCard: {
		"Comunícate con tu banco.",
		"Intenta con otra tarjeta o método de pago.",
	},
	DeclineExpiredCard: {
		"Revisa la fecha de vencimiento de la tarjeta.",
		"Intenta con otra tarjeta o método de pago.",
	},
	DeclineIncorrectCVC: {
		"Revisa el código de seguridad (CVC) de la tarjeta.",
	},
	DeclineProcessingError: {
		"Espera unos minutos e inténtalo de nuevo.",
	},
	DeclineLimitExceeded: {
		"Comunícate con tu banco para ampliar el límite.",
		"Intenta con otra tarjeta o método de pago.",
	},
	DeclineUnknown: {
		"Inténtalo de nuevo.",
		"Si el problema persiste, comunícate con soporte.",
	},
}

// ParseDeclineCode maps a backend code onto the closed set. Codes are
// matched exactly; anything else is DeclineUnknown.
func ParseDeclineCode(raw string) DeclineCode {
	code := DeclineCode(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := remedies[code]; ok {
		return code
	}
	return DeclineUnknown
}

func (c DeclineCode) Remedies() []string {
	r, ok := remedies[c]
	if !ok {
		r = remedies[DeclineUnknown]
	}
	out := make([]string, len(r))
	copy(out, r)
	return out
}

// Failure is what the shopper sees after a refused payment.
type Failure struct {
	Code     DeclineCode `json:"code"`
	Message  string      `json:"message"`
	Remedies []string    `json:"remedies"`
}

func NewFailure(code DeclineCode, message string) *Failure {
	return &Failure{Code: code, Message: message, Remedies: code.Remedies()}
}
