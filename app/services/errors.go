package services

// Kind classifies a service failure so the HTTP layer can pick a status.
type Kind int

const (
	KindInvalid Kind = iota + 1
	KindUnauthorized
	KindNotFound
	KindConflict
	KindUnprocessable
)

// Error is a failure whose Message is safe to show to the operator.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unauthorized lets the auth middleware recognise credential failures
// without importing this package.
func (e *Error) Unauthorized() bool { return e.Kind == KindUnauthorized }

func newError(k Kind, msg string) *Error { return &Error{Kind: k, Message: msg} }

var (
	ErrMissingCredentials = newError(KindInvalid, "Email e senha são obrigatórios")
	ErrInvalidCredentials = newError(KindUnauthorized, "Credenciais inválidas")
	ErrNoToken            = newError(KindUnauthorized, "Token não fornecido")
	ErrInvalidSession     = newError(KindUnauthorized, "Sessão inválida")
	ErrSessionExpired     = newError(KindUnauthorized, "Sessão expirada")
	ErrUserNotFound       = newError(KindUnauthorized, "Usuário não encontrado")

	ErrPedidoNotFound  = newError(KindNotFound, "Pedido não encontrado")
	ErrStatusInvalido  = newError(KindUnprocessable, "Status inválido")
	ErrTransicao       = newError(KindConflict, "Transição de status não permitida")
	ErrProdutoInvalido = newError(KindUnprocessable, "Produto inválido")
	ErrClienteInvalido = newError(KindUnprocessable, "Cliente não encontrado")
	ErrTrocoForma      = newError(KindUnprocessable, "Troco só é permitido para pagamento em dinheiro")
	ErrTrocoMenor      = newError(KindUnprocessable, "Troco deve ser maior ou igual ao total")
	ErrFormaPagamento  = newError(KindUnprocessable, "Forma de pagamento inválida")

	ErrEmailDuplicado = newError(KindConflict, "Email já cadastrado")
)
