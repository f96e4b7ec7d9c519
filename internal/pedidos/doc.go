// Package pedidos holds the production order model and its persistence.
package pedidos
