package model

// EstadoPedido is the lifecycle state of an Alquiler or a Venta.
type EstadoPedido string

const (
	EstadoPendiente EstadoPedido = "pendiente"
	EstadoDevuelto  EstadoPedido = "devuelto" // alquiler only
	EstadoPagado    EstadoPedido = "pagado"   // venta only
)

// Transiciones lists, per source state, the states an order may move to.
type Transiciones map[EstadoPedido][]EstadoPedido

var (
	TransicionesAlquiler = Transiciones{
		EstadoPendiente: {EstadoDevuelto},
	}
	TransicionesVenta = Transiciones{
		EstadoPendiente: {EstadoPagado},
	}
)

// Conoce reports whether e appears anywhere in the table.
func (t Transiciones) Conoce(e EstadoPedido) bool {
	for desde, hacia := range t {
		if desde == e {
			return true
		}
		for _, h := range hacia {
			if h == e {
				return true
			}
		}
	}
	return false
}

// Permite reports whether desde → hacia is a declared transition.
func (t Transiciones) Permite(desde, hacia EstadoPedido) bool {
	for _, h := range t[desde] {
		if h == hacia {
			return true
		}
	}
	return false
}
