package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (ej: duplicado, constraint violation).
	ErrConflict = errors.New("conflict")

	// ErrAlreadyLinked indica que la identidad de provider ya está
	// reclamada por otra cuenta en el backend de identidad.
	ErrAlreadyLinked = errors.New("provider identity already linked elsewhere")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indica que el backend no está disponible.
	ErrUnavailable = errors.New("backend unavailable")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyLinked verifica si el error es ErrAlreadyLinked.
func IsAlreadyLinked(err error) bool {
	return errors.Is(err, ErrAlreadyLinked)
}
