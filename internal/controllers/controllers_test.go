package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipment-system/internal/dto"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/types"
	"equipment-system/pkg/validation"
)

type stubCatalogService struct {
	previewErr error
	updateErr  error
	calls      int
}

func (s *stubCatalogService) GetCatalog(context.Context, types.Filter) ([]dto.EquipmentDTO, uint64, error) {
	return nil, 0, nil
}

func (s *stubCatalogService) FindCatalogLine(context.Context, string) (*dto.EquipmentDTO, error) {
	return nil, apperrors.NewDomainError(apperrors.ErrNotFound, "Модель оборудования не найдена")
}

func (s *stubCatalogService) CreateCatalogLine(_ context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error) {
	s.calls++
	return &dto.EquipmentDTO{ID: payload.TypeID + payload.VendorID, Name: payload.Name}, nil
}

func (s *stubCatalogService) UpdateCatalogLine(_ context.Context, id string, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error) {
	s.calls++
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &dto.EquipmentDTO{ID: id, Image: payload.Image.Ptr()}, nil
}

func (s *stubCatalogService) PreviewCatalogCode(_ context.Context, typeID, vendorID string) (*dto.CatalogCodeDTO, error) {
	if s.previewErr != nil {
		return nil, s.previewErr
	}
	return &dto.CatalogCodeDTO{Code: typeID + vendorID, Available: true}, nil
}

type stubUnitService struct {
	importErr error
}

func (s *stubUnitService) GetUnits(context.Context, types.Filter) ([]dto.UnitDTO, uint64, error) {
	return []dto.UnitDTO{{ID: 1}, {ID: 2}}, 2, nil
}

func (s *stubUnitService) FindUnit(context.Context, uint64) (*dto.UnitDTO, error) {
	return &dto.UnitDTO{ID: 1}, nil
}

func (s *stubUnitService) ImportUnits(_ context.Context, payload dto.ImportUnitsDTO) (*dto.ImportResultDTO, error) {
	if s.importErr != nil {
		return nil, s.importErr
	}
	return &dto.ImportResultDTO{Quantity: 1, UnitIDs: []uint64{1}, Warnings: []string{"Количество 75 превышает лимит, принято 50"}}, nil
}

func (s *stubUnitService) ActivateUnits(context.Context, dto.ActivateUnitsDTO) ([]dto.UnitDTO, error) {
	return nil, nil
}

type stubFileStorage struct {
	saved   []string
	deleted []string
}

func (s *stubFileStorage) Save(_ context.Context, file io.Reader, _ int64, name, prefix string) (string, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	url := "/uploads/" + prefix + "/" + name
	s.saved = append(s.saved, url)
	return url, nil
}

func (s *stubFileStorage) Delete(_ context.Context, fileURL string) error {
	s.deleted = append(s.deleted, fileURL)
	return nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	return e
}

func perform(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// performMultipart отправляет форму с полем data и PNG-файлом в поле image.
func performMultipart(t *testing.T, e *echo.Echo, method, target, data string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("data", data))
	file, err := form.CreateFormFile("image", "run600.png")
	require.NoError(t, err)
	_, err = file.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, form.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestPreviewCatalogCode(t *testing.T) {
	e := newTestEcho()
	catalog := &stubCatalogService{}
	ctrl := NewEquipmentController(catalog, nil, nil, zap.NewNop())
	e.GET("/api/equipment/code", ctrl.PreviewCatalogCode)

	rec := perform(e, http.MethodGet, "/api/equipment/code?type_id=CA01&vendor_id=TEC", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)["body"].(map[string]interface{})
	assert.Equal(t, "CA01TEC", body["code"])

	rec = perform(e, http.MethodGet, "/api/equipment/code?type_id=CA01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	catalog.previewErr = apperrors.NewDomainError(apperrors.ErrNotFound, "Поставщик 'XXX' не найден")
	rec = perform(e, http.MethodGet, "/api/equipment/code?type_id=CA01&vendor_id=XXX", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, false, res["status"])
	assert.Equal(t, "Поставщик 'XXX' не найден", res["message"])
}

func TestCreateCatalogLine_Validation(t *testing.T) {
	e := newTestEcho()
	catalog := &stubCatalogService{}
	ctrl := NewEquipmentController(catalog, nil, nil, zap.NewNop())
	e.POST("/api/equipment", ctrl.CreateCatalogLine)

	rec := perform(e, http.MethodPost, "/api/equipment", `{"type_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = perform(e, http.MethodPost, "/api/equipment", `{"type_id":"CA01","vendor_id":"TEC"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "Name")
	assert.Zero(t, catalog.calls)

	rec = perform(e, http.MethodPost, "/api/equipment", `{"type_id":"CA01","vendor_id":"TEC","name":"Run 600","warranty_duration":2}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, catalog.calls)
}

func TestUpdateCatalogLine_DiscardsUploadOnFailure(t *testing.T) {
	e := newTestEcho()
	catalog := &stubCatalogService{}
	storage := &stubFileStorage{}
	ctrl := NewEquipmentController(catalog, nil, storage, zap.NewNop())
	e.PUT("/api/equipment/:id", ctrl.UpdateCatalogLine)

	rec := performMultipart(t, e, http.MethodPut, "/api/equipment/CA01TEC", `{"name":"Run 700"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, storage.saved, 1)
	assert.Empty(t, storage.deleted)

	catalog.updateErr = apperrors.NewDomainError(apperrors.ErrNotFound, "Модель оборудования 'CA01XXX' не найдена")
	rec = performMultipart(t, e, http.MethodPut, "/api/equipment/CA01XXX", `{"name":"Run 700"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, storage.saved, 2)
	assert.Equal(t, []string{storage.saved[1]}, storage.deleted)
	assert.Equal(t, 2, catalog.calls)
}

func TestImportUnits_ErrorMapping(t *testing.T) {
	units := &stubUnitService{}
	e := newTestEcho()
	ctrl := NewEquipmentUnitController(units, zap.NewNop())
	e.POST("/api/equipmentUnit/import", ctrl.ImportUnits)

	payload := `{"catalog_id":"CA01TEC","branch_id":1,"vendor_id":"TEC","quantity":"75","unit_price":"1000000","warranty_start_date":"2026-01-10"}`

	rec := perform(e, http.MethodPost, "/api/equipmentUnit/import", payload)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "75")

	cases := []struct {
		err  error
		code int
	}{
		{apperrors.NewDomainError(apperrors.ErrInvalidQuantity, "Количество должно быть положительным целым числом"), http.StatusBadRequest},
		{apperrors.NewDomainError(apperrors.ErrNotFound, "Филиал не найден"), http.StatusNotFound},
		{apperrors.NewDomainError(apperrors.ErrUnitBusy, "занято"), http.StatusConflict},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		units.importErr = tc.err
		rec = perform(e, http.MethodPost, "/api/equipmentUnit/import", payload)
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestGetUnits_Pagination(t *testing.T) {
	e := newTestEcho()
	ctrl := NewEquipmentUnitController(&stubUnitService{}, zap.NewNop())
	e.GET("/api/equipmentUnit", ctrl.GetUnits)

	rec := perform(e, http.MethodGet, "/api/equipmentUnit?withPagination=true&limit=1&page=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)["body"].(map[string]interface{})
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, pagination["total_count"])
	assert.Len(t, body["list"], 2)
}

func TestParseDueHorizon(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	until, err := parseDueHorizon("", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), until)

	until, err = parseDueHorizon("", "30", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC), until)

	until, err = parseDueHorizon("2026-06-01", "30", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), until)

	_, err = parseDueHorizon("01.06.2026", "", now)
	assert.ErrorIs(t, err, apperrors.ErrInvalidDate)

	_, err = parseDueHorizon("", "-1", now)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}
