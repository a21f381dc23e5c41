package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramContext(value string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: value}}
	return c
}

func TestParseUintParam_Valid(t *testing.T) {
	id, err := parseUintParam(paramContext("42"), "id")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestParseUintParam_RejectsOverflow(t *testing.T) {
	// larger than 32 bits; must error rather than wrap around
	_, err := parseUintParam(paramContext("4294967296"), "id")
	assert.Error(t, err)
}

func TestParseUintParam_RejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "abc", "-1", "1.5"} {
		_, err := parseUintParam(paramContext(value), "id")
		assert.Error(t, err, "value %q", value)
	}
}
