package router

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = errors.New("entity missing")

func Test_MapError(t *testing.T) {
	router := New()
	router.MapError(errSentinel, func(err error) Error {
		return NewJSONError(http.StatusNotFound, err.Error())
	})

	tcs := []struct {
		name string
		err  error
		exp  Error
	}{
		{
			name: "registered sentinel",
			err:  errSentinel,
			exp:  NewJSONError(http.StatusNotFound, "entity missing"),
		},
		{
			name: "wrapped sentinel",
			err:  fmt.Errorf("%w: id 42", errSentinel),
			exp:  NewJSONError(http.StatusNotFound, "entity missing: id 42"),
		},
		{
			name: "unmapped error falls back to default",
			err:  errors.New("random error"),
			exp:  router.defaultError,
		},
		{
			name: "JSONError passes through",
			err:  NewJSONError(http.StatusBadRequest, "bad input"),
			exp:  NewJSONError(http.StatusBadRequest, "bad input"),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := router.mapError(tc.err)
			assert.Equal(t, tc.exp, got)
		})
	}
}
