package handler

import (
	"net/http"

	"vestibox/internal/dto"
	"vestibox/internal/service"

	"github.com/gin-gonic/gin"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// ListarMovimientos godoc
// @Summary      Libro de movimientos de stock
// @Tags         inventario
// @Produce      json
// @Param        producto_id   query string false "UUID del producto"
// @Param        referencia_id query string false "UUID del alquiler o venta que origino el movimiento"
// @Param        tipo          query string false "venta | alquiler | restore_eliminacion | ajuste_manual"
// @Param        page          query int    false "Pagina (desde 1)"
// @Param        limit         query int    false "Tamano de pagina (max 500)"
// @Success      200  {object} dto.MovimientoListResponse
// @Router       /v1/inventario/movimientos [get]
func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	var filter dto.MovimientoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
