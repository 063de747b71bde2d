package handler

import (
	"net/http"
	"strconv"

	"vestibox/internal/apierror"
	"vestibox/internal/dto"
	"vestibox/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductosHandler struct {
	svc        service.ProductoService
	inventario service.InventarioService
}

func NewProductosHandler(svc service.ProductoService, inventario service.InventarioService) *ProductosHandler {
	return &ProductosHandler{svc: svc, inventario: inventario}
}

func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.ProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductosHandler) Listar(c *gin.Context) {
	pag, ok := paginacion(c)
	if !ok {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), pag)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar ignores the stock field of the body.
func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Eliminar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MensajeResponse{Message: "Producto eliminado"})
}

// AjustarStock godoc
// @Summary      Ajuste manual de stock
// @Description  Aplica un delta con signo y registra un movimiento "ajuste_manual".
// @Tags         productos
// @Accept       json
// @Produce      json
// @Param        id   path     string                  true "UUID del producto"
// @Param        body body     dto.AjustarStockRequest true "Delta y motivo"
// @Success      200  {object} dto.ProductoResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError "Stock insuficiente (STOCK_PERMITIR_NEGATIVO=false)"
// @Router       /v1/productos/{id}/stock [patch]
func (h *ProductosHandler) AjustarStock(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AjustarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventario.AjustarStock(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Disponibilidad godoc
// @Summary      Consultar disponibilidad
// @Tags         productos
// @Produce      json
// @Param        id       path  string true "UUID del producto"
// @Param        cantidad query int    true "Unidades requeridas"
// @Success      200  {object} dto.DisponibilidadResponse
// @Router       /v1/productos/{id}/disponibilidad [get]
func (h *ProductosHandler) Disponibilidad(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	cantidad, err := strconv.Atoi(c.Query("cantidad"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewConCodigo(apierror.CodigoValidacion, "cantidad invalida"))
		return
	}
	resp, err := h.inventario.Disponibilidad(c.Request.Context(), id, cantidad)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
