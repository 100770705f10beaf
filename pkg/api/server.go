package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// POST /payments
	InitiatePayment(w http.ResponseWriter, r *http.Request)
	// GET /status
	GetStatus(w http.ResponseWriter, r *http.Request, params GetStatusParams)
	// POST /callback
	ReceiveCallback(w http.ResponseWriter, r *http.Request)
	// GET /transactions
	ListTransactions(w http.ResponseWriter, r *http.Request, params ListTransactionsParams)
	// GET /transactions/{sessionId}
	GetTransaction(w http.ResponseWriter, r *http.Request, sessionId string)
	// GET /transactions/{sessionId}/stream
	StreamTransaction(w http.ResponseWriter, r *http.Request, sessionId string)
}

// InvalidParamFormatError is passed to the error handler when a parameter does not bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ServerInterfaceWrapper converts raw requests into typed parameters.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if siw.ErrorHandlerFunc != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// InitiatePayment operation middleware
func (siw *ServerInterfaceWrapper) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	siw.Handler.InitiatePayment(w, r)
}

// GetStatus operation middleware
func (siw *ServerInterfaceWrapper) GetStatus(w http.ResponseWriter, r *http.Request) {
	var params GetStatusParams

	if err := runtime.BindQueryParameter("form", true, true, "sessionId", r.URL.Query(), &params.SessionId); err != nil {
		siw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "sessionId", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "activeQuery", r.URL.Query(), &params.ActiveQuery); err != nil {
		siw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "activeQuery", Err: err})
		return
	}

	siw.Handler.GetStatus(w, r, params)
}

// ReceiveCallback operation middleware
func (siw *ServerInterfaceWrapper) ReceiveCallback(w http.ResponseWriter, r *http.Request) {
	siw.Handler.ReceiveCallback(w, r)
}

// ListTransactions operation middleware
func (siw *ServerInterfaceWrapper) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var params ListTransactionsParams

	if err := runtime.BindQueryParameter("form", true, true, "phone", r.URL.Query(), &params.Phone); err != nil {
		siw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "phone", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		siw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.Handler.ListTransactions(w, r, params)
}

func (siw *ServerInterfaceWrapper) bindSessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var sessionId string
	err := runtime.BindStyledParameterWithOptions("simple", "sessionId", chi.URLParam(r, "sessionId"), &sessionId,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "sessionId", Err: err})
		return "", false
	}
	return sessionId, true
}

// GetTransaction operation middleware
func (siw *ServerInterfaceWrapper) GetTransaction(w http.ResponseWriter, r *http.Request) {
	if sessionId, ok := siw.bindSessionID(w, r); ok {
		siw.Handler.GetTransaction(w, r, sessionId)
	}
}

// StreamTransaction operation middleware
func (siw *ServerInterfaceWrapper) StreamTransaction(w http.ResponseWriter, r *http.Request) {
	if sessionId, ok := siw.bindSessionID(w, r); ok {
		siw.Handler.StreamTransaction(w, r, sessionId)
	}
}
