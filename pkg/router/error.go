package router

import (
	"encoding/json"
	"io"
)

type Error interface {
	error
	StatusCode() int
	Encode(w io.Writer) error
}

type JSONError struct {
	Code int    `json:"code"`
	Err  string `json:"error"`
}

func NewJSONError(code int, err string) JSONError {
	return JSONError{
		Code: code,
		Err:  err,
	}
}

func (e JSONError) StatusCode() int {
	return e.Code
}

func (e JSONError) Error() string {
	return e.Err
}

func (e JSONError) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(e)
}
