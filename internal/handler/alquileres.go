package handler

import (
	"net/http"

	"vestibox/internal/dto"
	"vestibox/internal/service"

	"github.com/gin-gonic/gin"
)

type AlquileresHandler struct{ svc service.AlquilerService }

func NewAlquileresHandler(svc service.AlquilerService) *AlquileresHandler {
	return &AlquileresHandler{svc: svc}
}

// Registrar godoc
// @Summary      Registrar alquiler
// @Description  Si el cliente ya tiene un alquiler pendiente, los detalles se agregan a ese alquiler y el total se suma.
// @Tags         alquileres
// @Accept       json
// @Produce      json
// @Param        body body dto.RegistrarAlquilerRequest true "Alquiler con sus detalles"
// @Success      201  {object} dto.AlquilerResponse
// @Failure      404  {object} apierror.APIError "Cliente o producto inexistente"
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/alquileres [post]
func (h *AlquileresHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarAlquilerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar alquileres
// @Tags         alquileres
// @Produce      json
// @Param        skip  query int false "Desplazamiento"
// @Param        limit query int false "Cantidad maxima (default 100)"
// @Success      200  {array} dto.AlquilerResponse
// @Router       /v1/alquileres [get]
func (h *AlquileresHandler) Listar(c *gin.Context) {
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

func (h *AlquileresHandler) ObtenerPorID(c *gin.Context) {
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

func (h *AlquileresHandler) ListarPorCliente(c *gin.Context) {
	clienteID, ok := paramUUID(c, "cliente_id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarPorCliente(c.Request.Context(), clienteID)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarEstado godoc
// @Summary      Cambiar estado del alquiler
// @Description  "devuelto" registra fecha_devolucion y genera el comprobante.
// @Tags         alquileres
// @Produce      json
// @Param        id     path  string true "UUID del alquiler"
// @Param        estado query string true "Nuevo estado"
// @Success      200  {object} dto.AlquilerResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError "Transicion no permitida"
// @Failure      422  {object} apierror.APIError "Estado desconocido"
// @Router       /v1/alquileres/{id}/estado [put]
func (h *AlquileresHandler) ActualizarEstado(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ActualizarEstado(c.Request.Context(), id, c.Query("estado"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar alquiler
// @Description  Devuelve al stock las cantidades de cada detalle y elimina el alquiler.
// @Tags         alquileres
// @Produce      json
// @Param        id   path     string true "UUID del alquiler"
// @Success      200  {object} dto.MensajeResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/alquileres/{id} [delete]
func (h *AlquileresHandler) Eliminar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MensajeResponse{Message: "Alquiler eliminado"})
}
