package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors. Handlers map them to HTTP status codes with errors.Is;
// services wrap them with context via fmt.Errorf("%w: ...").
var (
	ErrValidacion   = errors.New("error de validacion")
	ErrNoEncontrado = errors.New("no encontrado")
	ErrConflicto    = errors.New("conflicto")

	ErrTransicionInvalida = fmt.Errorf("%w: transicion de estado invalida", ErrConflicto)
	ErrStockInsuficiente  = fmt.Errorf("%w: stock insuficiente", ErrConflicto)
)

// noEncontrado translates a missing-row error from the repositories into
// ErrNoEncontrado. Other errors pass through unchanged.
func noEncontrado(err error, entidad string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", entidad, ErrNoEncontrado)
	}
	return err
}

// conflicto maps constraint violations (TranslateError is enabled on the
// gorm.DB) to ErrConflicto with a caller-facing message.
func conflicto(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %s", ErrConflicto, msg)
	}
	return err
}
