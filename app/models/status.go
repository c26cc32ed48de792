package models

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a Pedido.
type Status string

const (
	StatusPendente    Status = "pendente"
	StatusPreparando  Status = "preparando"
	StatusSaiuEntrega Status = "saiu_entrega"
	StatusEntregue    Status = "entregue"
	StatusCancelado   Status = "cancelado"
)

// Statuses lists every state in lifecycle order.
var Statuses = []Status{StatusPendente, StatusPreparando, StatusSaiuEntrega, StatusEntregue, StatusCancelado}

var (
	ErrUnknownStatus     = errors.New("unknown status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// transitions holds the allowed (from, to) pairs besides from == to.
var transitions = map[Status][]Status{
	StatusPendente:    {StatusPreparando, StatusCancelado},
	StatusPreparando:  {StatusSaiuEntrega, StatusCancelado},
	StatusSaiuEntrega: {StatusEntregue, StatusCancelado},
	StatusEntregue:    nil,
	StatusCancelado:   nil,
}

// ParseStatus returns ErrUnknownStatus for anything outside the enum.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether s may move to next. Staying put is allowed.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return s.Valid()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates the move from s to next.
func (s Status) Transition(next Status) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}
	if !s.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, next)
	}
	return nil
}

// FormaPagamento is how the customer pays.
type FormaPagamento string

const (
	PagamentoDinheiro      FormaPagamento = "dinheiro"
	PagamentoCartaoCredito FormaPagamento = "cartao_credito"
	PagamentoCartaoDebito  FormaPagamento = "cartao_debito"
	PagamentoPix           FormaPagamento = "pix"
)

var FormasPagamento = []FormaPagamento{PagamentoDinheiro, PagamentoCartaoCredito, PagamentoCartaoDebito, PagamentoPix}

func (f FormaPagamento) Valid() bool {
	for _, known := range FormasPagamento {
		if f == known {
			return true
		}
	}
	return false
}

// IsPaid derives settlement: delivered orders are paid, cancelled never are,
// and card or PIX orders are settled at the moment they are placed.
func IsPaid(s Status, f FormaPagamento) bool {
	switch s {
	case StatusEntregue:
		return true
	case StatusCancelado:
		return false
	}
	return f != PagamentoDinheiro
}
