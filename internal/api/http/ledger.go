package http

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/service"
)

type appendTransactionRequest struct {
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	MemberName    string          `json:"member_name"`
	TransactionID string          `json:"transaction_id"`
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.List())
}

func (h *Handler) AppendTransaction(w http.ResponseWriter, r *http.Request) {
	var req appendTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	typ, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.ledger.Append(r.Context(), service.AppendTransactionInput{
		Type:          typ,
		Amount:        req.Amount,
		Description:   req.Description,
		MemberName:    req.MemberName,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.ClearAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Statement serves ?from=YYYY-MM&to=YYYY-MM as JSON, or CSV with format=csv.
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := ledger.ParseMonthPeriod(q.Get("from"), q.Get("to"), h.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	st := h.ledger.Statement(period)

	if q.Get("format") != "csv" {
		writeJSON(w, http.StatusOK, st)
		return
	}

	filename := fmt.Sprintf("statement-%s-%s.csv", q.Get("from"), q.Get("to"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := writeStatementCSV(csv.NewWriter(w), st); err != nil {
		writeError(w, r, err)
	}
}

func writeStatementCSV(cw *csv.Writer, st ledger.Statement) error {
	records := [][]string{{"date", "type", "description", "member_name", "transaction_id", "amount"}}
	for _, tx := range st.Transactions {
		records = append(records, []string{
			tx.Date.Format("2006-01-02"),
			string(tx.Type),
			tx.Description,
			tx.MemberName,
			tx.TransactionID,
			tx.Amount.StringFixed(2),
		})
	}
	records = append(records,
		[]string{},
		[]string{"opening_balance", st.OpeningBalance.StringFixed(2)},
		[]string{"donations", st.Totals.Donations.StringFixed(2)},
		[]string{"withdrawals", st.Totals.Withdrawals.StringFixed(2)},
		[]string{"closing_balance", st.ClosingBalance.StringFixed(2)},
	)
	return cw.WriteAll(records)
}
