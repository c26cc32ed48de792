package validate_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/multidelivery/painel/pkg/validate"
)

type itemInput struct {
	ProdutoID  string `json:"produto_id" validate:"required,uuid"`
	Quantidade int    `json:"quantidade" validate:"required,gte=1"`
}

type pedidoInput struct {
	ClienteID *string          `json:"cliente_id"      validate:"nullable,uuid"`
	Forma     string           `json:"forma_pagamento" validate:"nullable,in=dinheiro,cartao_credito,cartao_debito,pix"`
	TrocoPara *decimal.Decimal `json:"troco_para"      validate:"nullable,gt=0"`
	Itens     []itemInput      `json:"itens"           validate:"required,min=1,dive"`
}

const produtoID = "0b8a3c9e-6f1d-4c2a-9e7b-5d4f3a2b1c0d"

func TestValidInput(t *testing.T) {
	troco := decimal.RequireFromString("50.00")
	errs := validate.Struct(pedidoInput{
		Forma:     "pix",
		TrocoPara: &troco,
		Itens:     []itemInput{{ProdutoID: produtoID, Quantidade: 2}},
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredAndMinItems(t *testing.T) {
	errs := validate.Struct(pedidoInput{})
	if _, ok := errs["itens"]; !ok {
		t.Errorf("expected itens to be required, got: %v", errs)
	}

	errs = validate.Struct(pedidoInput{Itens: []itemInput{}})
	if _, ok := errs["itens"]; !ok {
		t.Errorf("expected empty itens to fail, got: %v", errs)
	}
}

func TestDiveReportsIndexedKeys(t *testing.T) {
	errs := validate.Struct(pedidoInput{Itens: []itemInput{
		{ProdutoID: produtoID, Quantidade: 1},
		{ProdutoID: "nope", Quantidade: 0},
	}})

	if _, ok := errs["itens.1.produto_id"]; !ok {
		t.Errorf("expected itens.1.produto_id error, got: %v", errs)
	}
	if _, ok := errs["itens.1.quantidade"]; !ok {
		t.Errorf("expected itens.1.quantidade error, got: %v", errs)
	}
	if _, ok := errs["itens.0.produto_id"]; ok {
		t.Errorf("did not expect an error for item 0: %v", errs)
	}
}

func TestInRule(t *testing.T) {
	errs := validate.Struct(pedidoInput{Forma: "cheque", Itens: []itemInput{{ProdutoID: produtoID, Quantidade: 1}}})
	if msg := errs["forma_pagamento"]; msg != "O valor de forma_pagamento é inválido." {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestDecimalBounds(t *testing.T) {
	zero := decimal.Zero
	errs := validate.Struct(pedidoInput{TrocoPara: &zero, Itens: []itemInput{{ProdutoID: produtoID, Quantidade: 1}}})
	if validate.HasErrors(errs) {
		t.Errorf("nullable zero decimal should be skipped, got: %v", errs)
	}

	type produtoInput struct {
		Preco decimal.Decimal `json:"preco" validate:"required,gt=0"`
	}
	if errs := validate.Struct(produtoInput{Preco: decimal.RequireFromString("-1")}); !validate.HasErrors(errs) {
		t.Error("expected negative price to fail")
	}
	if errs := validate.Struct(produtoInput{}); errs["preco"] != "O campo preco é obrigatório." {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestEmailAndLength(t *testing.T) {
	type clienteInput struct {
		Nome     string  `json:"nome"     validate:"required,max=10"`
		Email    *string `json:"email"    validate:"nullable,email"`
		Telefone *string `json:"telefone" validate:"nullable,max=20"`
	}
	bad := "not-an-email"
	empty := ""
	errs := validate.Struct(clienteInput{Nome: "Um nome longo demais", Email: &bad})
	if _, ok := errs["nome"]; !ok {
		t.Error("expected nome max error")
	}
	if _, ok := errs["email"]; !ok {
		t.Error("expected email error")
	}

	errs = validate.Struct(clienteInput{Nome: "Ana", Email: &empty})
	if validate.HasErrors(errs) {
		t.Errorf("empty nullable email should pass, got: %v", errs)
	}
}
