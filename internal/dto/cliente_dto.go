package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ClienteRequest is used for both create and full update (PUT).
type ClienteRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,min=1,max=100"`
	Email     string  `json:"email"     validate:"required,email,max=100"`
	Telefono  *string `json:"telefono"  validate:"omitempty,max=20"`
	Direccion *string `json:"direccion" validate:"omitempty,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClienteResponse struct {
	ID            string  `json:"id"`
	Nombre        string  `json:"nombre"`
	Email         string  `json:"email"`
	Telefono      *string `json:"telefono"`
	Direccion     *string `json:"direccion"`
	Activo        bool    `json:"activo"`
	FechaCreacion string  `json:"fecha_creacion"`
}
