// Package collection provides generic helpers for slices.
//
//	pendentes := collection.Filter(pedidos, func(p models.PedidoResumo) bool {
//	    return p.Status == models.StatusPendente
//	})
//	ids := collection.Unique(collection.Map(itens, func(i ItemInput) string { return i.ProdutoID }))
//
// Filter and Map always return a non-nil slice so results encode as [] rather than null.
package collection

// Map transforms each element of s using fn.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Filter returns the elements of s for which fn returns true.
func Filter[T any](s []T, fn func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// Unique returns s without duplicates, keeping the first occurrence.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	out := make([]T, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Reduce folds s into a single value.
func Reduce[T, R any](s []T, initial R, fn func(carry R, item T) R) R {
	acc := initial
	for _, v := range s {
		acc = fn(acc, v)
	}
	return acc
}
