package models

import "github.com/google/uuid"

// assignID fills an empty string primary key with a random UUID.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{}, &Session{}, &Cliente{}, &Produto{}, &Pedido{}, &PedidoItem{},
	}
}

