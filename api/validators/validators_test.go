package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
)

type sampleBody struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	Method   string `json:"method" validate:"omitempty,oneof=cash card"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","quantity":1,"extra":true}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","quantity":0,"method":"crypto"}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be greater than 0", details["quantity"])
	assert.Equal(t, "must be one of cash card", details["method"])
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&cursor=abc", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, pagination.Params{Limit: 10, Cursor: "abc"}, params)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	params, err = ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)

	req = httptest.NewRequest(http.MethodGet, "/?limit=1000", nil)
	_, err = ParsePagination(req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryTimeAcceptsDates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2026-01-02&to=2026-01-03T10:00:00Z&bad=yesterday", nil)

	from, err := ParseQueryTime(req, "from")
	require.NoError(t, err)
	assert.Equal(t, 2, from.Day())

	to, err := ParseQueryTime(req, "to")
	require.NoError(t, err)
	assert.Equal(t, 10, to.Hour())

	missing, err := ParseQueryTime(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = ParseQueryTime(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestURLParamUUID(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("id", id.String())
	rc.URLParams.Add("bad", "nope")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := URLParamUUID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = URLParamUUID(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = URLParamUUID(req, "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ParseBearerToken(req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	req.Header.Set("Authorization", "Bearer abc.def")
	token, err := ParseBearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "blue dream", SanitizeString("  blue\x00 dream\n ", 0))
	assert.Equal(t, "ñañ", SanitizeString("ñañaña", 3))
	assert.Equal(t, "", SanitizeString(" \t ", 10))
}

type nestedBody struct {
	Items []struct {
		Quantity int `json:"quantity" validate:"gt=0"`
	} `json:"items" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyReportsNestedPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[{"quantity":2},{"quantity":0}]}`))
	var body nestedBody
	err := DecodeJSONBody(req, &body)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be greater than 0", details["items[1].quantity"])
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"trailing":      `{"name":"a","quantity":1} {"name":"b"}`,
		"wrong type":    `{"name":"a","quantity":"two"}`,
		"oversized":     `{"name":"` + strings.Repeat("x", maxBodyBytes) + `","quantity":1}`,
		"unknown field": `{"items":[]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
			var body sampleBody
			err := DecodeJSONBody(req, &body)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestDecodeJSONBodyNamesMistypedField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","quantity":"two"}`))
	var body sampleBody
	typed := pkgerrors.As(DecodeJSONBody(req, &body))
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be int", details["quantity"])
}
