package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/minshop/order-api/internal/usecase"
)

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", usecase.ErrOrderNotFound, http.StatusNotFound},
		{"empty selection", usecase.ErrEmptySelection, http.StatusBadRequest},
		{"amount mismatch", usecase.ErrAmountMismatch, http.StatusBadRequest},
		{"duplicate submission", usecase.ErrDuplicate, http.StatusBadRequest},
		{"invalid state", usecase.ErrInvalidState, http.StatusConflict},
		{"already canceled", usecase.ErrAlreadyCanceled, http.StatusConflict},
		{"insufficient stock", usecase.ErrInsufficientStock, http.StatusConflict},
		{"payment rejected", &usecase.SettlementError{Kind: usecase.KindPaymentRejected, Msg: "pg confirm status ABORTED"}, http.StatusUnprocessableEntity},
		{"refund rejected", &usecase.SettlementError{Kind: usecase.KindRefundRejected, Msg: "pg cancel status FAILED"}, http.StatusUnprocessableEntity},
		{"unavailable", usecase.Unavailable("pg confirm", errors.New("timeout")), http.StatusServiceUnavailable},
		{"foreign error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}
