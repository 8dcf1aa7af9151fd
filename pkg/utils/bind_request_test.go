package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindTestBody struct {
	Name string `json:"name" validate:"required"`
}

func newBindContext(body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestBindRequest(t *testing.T) {
	v, err := BindRequest[bindTestBody](newBindContext(`{"name":"weller"}`))

	require.NoError(t, err)
	assert.Equal(t, "weller", v.Name)
}

func TestBindRequestMalformedBody(t *testing.T) {
	_, err := BindRequest[bindTestBody](newBindContext(`{"name":`))

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBindRequestValidationFailure(t *testing.T) {
	_, err := BindRequest[bindTestBody](newBindContext(`{}`))

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}
