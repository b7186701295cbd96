package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smart/internal/apierror"
	"smart/internal/cart"
	"smart/internal/dto"
	"smart/internal/infra"
	"smart/internal/model"
	"smart/internal/service"
	"smart/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Companion /api ────────────────────────────────────────────────────────────

func TestBienvenida(t *testing.T) {
	r := gin.New()
	r.GET("/api", Bienvenida)
	r.GET("/api/productos", BienvenidaProductos)

	for path, want := range map[string]string{
		"/api":           "¡Bienvenido a la API de mi tienda!",
		"/api/productos": "Bienvenido a la API de productos",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, want, body["message"])
	}
}

// ── Error mapping ─────────────────────────────────────────────────────────────

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{cart.ErrCuponAgotado, http.StatusBadRequest},
		{service.ErrCarritoVacio, http.StatusBadRequest},
		{fmt.Errorf("%w: Yerba", service.ErrStockInsuficiente), http.StatusConflict},
		{service.ErrVentaNoEncontrada, http.StatusNotFound},
		{service.ErrConversacionAjena, http.StatusForbidden},
		{service.ErrTokenInvalido, http.StatusUnauthorized},
		{fmt.Errorf("imagen: %w", infra.ErrCircuitOpen), http.StatusServiceUnavailable},
		{&infra.UploadError{Status: 400, Message: "Upload preset not found"}, http.StatusBadGateway},
		{errors.New("pq: deadlock detected"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := gin.New()
		r.Use(errorHandlerForTest())
		r.GET("/", func(c *gin.Context) { respondError(c, tc.err) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}
}

func TestRespondError_UploadErrorCarriesProviderMessage(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		respondError(c, &infra.UploadError{Status: 400, Message: "Upload preset not found"})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), "Upload preset not found")
}

func TestRespondError_TagsMachineReadableCode(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		respondError(c, fmt.Errorf("%w: Yerba", service.ErrStockInsuficiente))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body apierror.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apierror.CodigoStock, body.Codigo)
	assert.Contains(t, body.Detail, "Yerba")
}

// errorHandlerForTest answers 500 for attached errors like middleware.ErrorHandler.
func errorHandlerForTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			c.AbortWithStatus(http.StatusInternalServerError)
		}
	}
}

// ── Health / jobs ─────────────────────────────────────────────────────────────

func TestHealth_ReportsDependencies(t *testing.T) {
	h := newHarness(t)
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig("imagen_upload"))
	h.router.GET("/health", Health(nil, h.rdb, h.terminals, cb))
	worker.SendToDLQ(context.Background(), h.rdb, worker.QueueTicket, worker.JobTicket, json.RawMessage(`{}`), "boom", 3)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no database")

	var body struct {
		OK       bool              `json:"ok"`
		DB       string            `json:"db"`
		Redis    string            `json:"redis"`
		DLQ      map[string]int64  `json:"dlq"`
		Circuits map[string]string `json:"circuits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.OK)
	assert.Equal(t, "error", body.DB)
	assert.Equal(t, "connected", body.Redis)
	assert.Equal(t, int64(1), body.DLQ[worker.QueueTicket])
	assert.Equal(t, "closed", body.Circuits["imagen_upload"])
}

func TestJobs_ListAndReplayDLQ(t *testing.T) {
	h := newHarness(t)
	jh := NewJobsHandler(h.rdb)
	h.router.GET("/jobs/dlq", jh.ListarDLQ)
	h.router.POST("/jobs/dlq/:queue/reintentar", jh.Reintentar)

	ctx := context.Background()
	worker.SendToDLQ(ctx, h.rdb, worker.QueueEmail, worker.JobEmail, json.RawMessage(`{"to":"a@b.c"}`), "smtp down", 3)
	worker.SendToDLQ(ctx, h.rdb, worker.QueueEmail, worker.JobEmail, json.RawMessage(`{"to":"d@e.f"}`), "smtp down", 3)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/dlq", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var counts map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.Equal(t, int64(2), counts[worker.JobEmail])
	assert.Equal(t, int64(0), counts[worker.JobTicket])

	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs/dlq/email/reintentar?n=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reencolados":1}`, w.Body.String())

	n, err := h.rdb.LLen(ctx, worker.QueueEmail).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs/dlq/facturas/reintentar", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs/dlq/email/reintentar?n=0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ── Imagenes ──────────────────────────────────────────────────────────────────

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(_ context.Context, _ string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return f.url, f.err
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/imagenes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImagenes_Subir(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	cases := []struct {
		name     string
		field    string
		filename string
		uploader *fakeUploader
		want     int
	}{
		{"ok", "imagen", "yerba.png", &fakeUploader{url: "https://cdn/yerba.png"}, http.StatusCreated},
		{"missing field", "", "", &fakeUploader{}, http.StatusBadRequest},
		{"bad extension", "imagen", "factura.pdf", &fakeUploader{}, http.StatusBadRequest},
		{"provider rejects", "imagen", "yerba.png", &fakeUploader{err: &infra.UploadError{Status: 400, Message: "Invalid image file"}}, http.StatusBadGateway},
		{"breaker open", "imagen", "yerba.png", &fakeUploader{err: infra.ErrCircuitOpen}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/imagenes", NewImagenesHandler(service.NewImagenService(tc.uploader)).Subir)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, multipartRequest(t, tc.field, tc.filename, png))
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			if tc.want == http.StatusCreated {
				assert.JSONEq(t, `{"url":"https://cdn/yerba.png"}`, w.Body.String())
			}
		})
	}
}

// ── Ventas ────────────────────────────────────────────────────────────────────

type fakeCheckout struct {
	ticketPath string
	ticketErr  error
	posErr     error
	filter     dto.VentaFilter
}

func (f *fakeCheckout) CheckoutPOS(context.Context, *service.Terminal, *model.Usuario, dto.CheckoutPOSRequest) (*dto.CheckoutPOSResponse, error) {
	if f.posErr != nil {
		return nil, f.posErr
	}
	return &dto.CheckoutPOSResponse{Recibo: dto.ReciboResponse{NumeroTicket: 7}}, nil
}
func (f *fakeCheckout) CheckoutEnLinea(context.Context, *service.Terminal, *model.Usuario, dto.CheckoutEnLineaRequest) (*dto.CheckoutEnLineaResponse, error) {
	return &dto.CheckoutEnLineaResponse{}, nil
}
func (f *fakeCheckout) HistorialPOS(context.Context, uuid.UUID, time.Time) ([]dto.VentaListItem, error) {
	return nil, nil
}
func (f *fakeCheckout) ListVentas(_ context.Context, _ *model.Usuario, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	f.filter = filter
	return &dto.VentaListResponse{Fecha: filter.Fecha, Data: []dto.VentaListItem{}}, nil
}
func (f *fakeCheckout) TicketPath(context.Context, *model.Usuario, uuid.UUID) (string, error) {
	return f.ticketPath, f.ticketErr
}

func TestVentas_CheckoutPOS(t *testing.T) {
	h := newHarness(t)
	fc := &fakeCheckout{}
	cajero := h.user("tok-cajero", model.RolCajero)
	h.v1.POST("/checkout/pos", asUser(cajero), NewVentasHandler(fc).CheckoutPOS)

	w := h.do(t, request{method: http.MethodPost, path: "/v1/checkout/pos", body: dto.CheckoutPOSRequest{MetodoPago: "cheque"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = h.do(t, request{method: http.MethodPost, path: "/v1/checkout/pos", body: dto.CheckoutPOSRequest{MetodoPago: "efectivo"}})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 7, decode[dto.CheckoutPOSResponse](t, w).Recibo.NumeroTicket)

	fc.posErr = service.ErrCarritoVacio
	w = h.do(t, request{method: http.MethodPost, path: "/v1/checkout/pos", body: dto.CheckoutPOSRequest{MetodoPago: "efectivo"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), service.ErrCarritoVacio.Error())
}

func TestVentas_ListarValidatesFecha(t *testing.T) {
	fc := &fakeCheckout{}
	r := gin.New()
	r.GET("/ventas", asUser(&model.Usuario{ID: uuid.New(), Rol: model.RolCajero}), NewVentasHandler(fc).ListarVentas)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ventas?fecha=19-10-2026", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ventas?fecha=2026-10-19", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-10-19", fc.filter.Fecha)
}

func TestVentas_DescargarTicket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticket.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3"), 0o644))
	fc := &fakeCheckout{ticketPath: path}

	r := gin.New()
	r.GET("/ventas/:id/ticket", asUser(&model.Usuario{ID: uuid.New(), Rol: model.RolCajero}), NewVentasHandler(fc).DescargarTicket)

	id := uuid.New()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ventas/"+id.String()+"/ticket", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ticket-"+id.String()+".pdf")
	assert.Equal(t, "%PDF-1.3", w.Body.String())

	fc.ticketErr = service.ErrTicketPendiente
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ventas/"+id.String()+"/ticket", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ventas/no-uuid/ticket", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
