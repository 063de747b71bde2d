package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"vestibox/internal/apierror"
	"vestibox/internal/dto"
	"vestibox/internal/handler"
	"vestibox/internal/middleware"
	"vestibox/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// stubVentaService records the last call and returns err when set.
type stubVentaService struct {
	err       error
	registrar *dto.RegistrarVentaRequest
	estado    string
	eliminado uuid.UUID
}

func (s *stubVentaService) Registrar(_ context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	s.registrar = &req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.VentaResponse{ID: uuid.NewString(), ClienteID: req.ClienteID, Total: req.Total, Estado: "pendiente"}, nil
}

func (s *stubVentaService) ObtenerPorID(_ context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.VentaResponse{ID: id.String(), Estado: "pendiente"}, nil
}

func (s *stubVentaService) Listar(_ context.Context, _ dto.Paginacion) ([]dto.VentaResponse, error) {
	return []dto.VentaResponse{}, s.err
}

func (s *stubVentaService) ListarPorCliente(_ context.Context, _ uuid.UUID) ([]dto.VentaResponse, error) {
	return []dto.VentaResponse{}, s.err
}

func (s *stubVentaService) ActualizarEstado(_ context.Context, id uuid.UUID, estado string) (*dto.VentaResponse, error) {
	s.estado = estado
	if s.err != nil {
		return nil, s.err
	}
	return &dto.VentaResponse{ID: id.String(), Estado: estado}, nil
}

func (s *stubVentaService) Eliminar(_ context.Context, id uuid.UUID) error {
	s.eliminado = id
	return s.err
}

var _ service.VentaService = (*stubVentaService)(nil)

func newVentasRouter(svc service.VentaService) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	h := handler.NewVentasHandler(svc)
	g := r.Group("/v1/ventas")
	g.POST("", h.Registrar)
	g.GET("", h.Listar)
	g.GET("/cliente/:cliente_id", h.ListarPorCliente)
	g.GET("/:id", h.ObtenerPorID)
	g.PUT("/:id/estado", h.ActualizarEstado)
	g.DELETE("/:id", h.Eliminar)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ventaValida() dto.RegistrarVentaRequest {
	return dto.RegistrarVentaRequest{
		ClienteID: uuid.NewString(),
		Total:     decimal.NewFromInt(100),
		Detalles: []dto.DetalleRequest{{
			ProductoID:     uuid.NewString(),
			Cantidad:       2,
			PrecioUnitario: decimal.NewFromInt(50),
			Subtotal:       decimal.NewFromInt(100),
		}},
	}
}

func TestRegistrarVenta_Created(t *testing.T) {
	svc := &stubVentaService{}
	w := do(newVentasRouter(svc), http.MethodPost, "/v1/ventas", ventaValida())

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp dto.VentaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pendiente", resp.Estado)
	require.NotNil(t, svc.registrar)
	assert.True(t, decimal.NewFromInt(100).Equal(svc.registrar.Total))
}

func TestRegistrarVenta_JSONInvalido(t *testing.T) {
	svc := &stubVentaService{}
	w := do(newVentasRouter(svc), http.MethodPost, "/v1/ventas", "{no es json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.registrar)
}

func TestRegistrarVenta_Validacion(t *testing.T) {
	cases := map[string]struct {
		mutar func(*dto.RegistrarVentaRequest)
		campo string
	}{
		"sin detalles":      {func(r *dto.RegistrarVentaRequest) { r.Detalles = []dto.DetalleRequest{} }, "detalles"},
		"cliente no uuid":   {func(r *dto.RegistrarVentaRequest) { r.ClienteID = "123" }, "id_cliente"},
		"cantidad cero":     {func(r *dto.RegistrarVentaRequest) { r.Detalles[0].Cantidad = 0 }, "detalles[0].cantidad"},
		"subtotal negativo": {func(r *dto.RegistrarVentaRequest) { r.Detalles[0].Subtotal = decimal.NewFromInt(-1) }, "detalles[0].subtotal"},
		"total negativo":    {func(r *dto.RegistrarVentaRequest) { r.Total = decimal.NewFromInt(-5) }, "total"},
		"producto invalido": {func(r *dto.RegistrarVentaRequest) { r.Detalles[0].ProductoID = "x" }, "detalles[0].id_producto"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubVentaService{}
			req := ventaValida()
			tc.mutar(&req)
			w := do(newVentasRouter(svc), http.MethodPost, "/v1/ventas", req)

			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			var body apierror.ValidationError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, apierror.CodigoValidacion, body.Codigo)
			assert.Contains(t, body.Fields, tc.campo)
			assert.Nil(t, svc.registrar, "service must not be reached")
		})
	}
}

func TestResponderError_MapeaSentinelas(t *testing.T) {
	cases := []struct {
		err    error
		status int
		codigo string
	}{
		{fmt.Errorf("%w: detalle 1", service.ErrValidacion), http.StatusUnprocessableEntity, apierror.CodigoValidacion},
		{fmt.Errorf("cliente %w", service.ErrNoEncontrado), http.StatusNotFound, apierror.CodigoNoEncontrado},
		{fmt.Errorf("%w: pagado -> pendiente", service.ErrTransicionInvalida), http.StatusConflict, apierror.CodigoTransicionInvalida},
		{fmt.Errorf("%w: quedan 0", service.ErrStockInsuficiente), http.StatusConflict, apierror.CodigoStockInsuficiente},
		{fmt.Errorf("%w: ya existe", service.ErrConflicto), http.StatusConflict, apierror.CodigoConflicto},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError, apierror.CodigoInterno},
	}
	for _, tc := range cases {
		t.Run(tc.codigo, func(t *testing.T) {
			w := do(newVentasRouter(&stubVentaService{err: tc.err}), http.MethodPost, "/v1/ventas", ventaValida())

			require.Equal(t, tc.status, w.Code)
			var body apierror.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.codigo, body.Codigo)
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, body.Detail, "connection refused", "internal errors must not leak")
			}
		})
	}
}

func TestVentaPorID_UUIDInvalido(t *testing.T) {
	w := do(newVentasRouter(&stubVentaService{}), http.MethodGet, "/v1/ventas/no-uuid", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestActualizarEstadoVenta_LeeQuery(t *testing.T) {
	svc := &stubVentaService{}
	id := uuid.New()
	w := do(newVentasRouter(svc), http.MethodPut, "/v1/ventas/"+id.String()+"/estado?estado=pagado", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pagado", svc.estado)
}

func TestEliminarVenta(t *testing.T) {
	svc := &stubVentaService{}
	id := uuid.New()
	w := do(newVentasRouter(svc), http.MethodDelete, "/v1/ventas/"+id.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, svc.eliminado)
	var body dto.MensajeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Venta eliminada", body.Message)
}

func TestListarVentas_Paginacion(t *testing.T) {
	r := newVentasRouter(&stubVentaService{})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/v1/ventas?skip=0&limit=10", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodGet, "/v1/ventas?limit=1000", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodGet, "/v1/ventas?skip=-1", nil).Code)
}

func TestListarVentasPorCliente(t *testing.T) {
	r := newVentasRouter(&stubVentaService{})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/v1/ventas/cliente/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodGet, "/v1/ventas/cliente/abc", nil).Code)
}
