package dto

// Paginacion is bound from the skip/limit query string used by every list endpoint.
type Paginacion struct {
	Skip  int `form:"skip,default=0"    validate:"min=0"`
	Limit int `form:"limit,default=100" validate:"min=1,max=500"`
}

// Normalizar applies the defaults of the original API to out-of-range values.
func (p *Paginacion) Normalizar() {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit < 1 || p.Limit > 500 {
		p.Limit = 100
	}
}

// MensajeResponse is returned by delete endpoints.
type MensajeResponse struct {
	Message string `json:"message"`
}
