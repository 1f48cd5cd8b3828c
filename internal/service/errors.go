package service

import "errors"

// Login flow error taxonomy. Handlers map these to status codes and the
// user-facing messages; anything not in this list is an internal error.
//
// Device failures carry two distinct messages (unregistered vs not approved).
// Credential failures are deliberately a single generic error: "no such PIN"
// and "user inactive" are indistinguishable to the client so the API leaks
// nothing about which accounts exist.
var (
	ErrDispositivoNoRegistrado = errors.New("dispositivo no registrado")
	ErrDispositivoNoAprobado   = errors.New("dispositivo pendiente de aprobacion")
	ErrRateLimited             = errors.New("demasiados intentos, espere un minuto")
	ErrCredencialesInvalidas   = errors.New("PIN incorrecto")
	ErrEmisionToken            = errors.New("no se pudo generar el token")
	ErrUpstreamNoDisponible    = errors.New("servicio no disponible, intente nuevamente")
	ErrLoginEnCurso            = errors.New("ya hay un login en curso para este dispositivo")
)

var (
	ErrRolInvalido       = errors.New("rol desconocido")
	ErrMesaOcupada       = errors.New("la mesa ya tiene una orden abierta")
	ErrOrdenNoAbierta    = errors.New("la orden no esta abierta")
	ErrOrdenSinItems     = errors.New("la orden no tiene items")
	ErrProductoInactivo  = errors.New("el producto esta inactivo")
	ErrStockInsuficiente = errors.New("stock insuficiente")
)
