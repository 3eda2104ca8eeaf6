package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
)

type ExpenseHandler struct {
	Shops service.ShopService
}

func (h ExpenseHandler) RegisterRoutes(r chi.Router) {
	r.Post("/expenses", h.create)
	r.Get("/expenses", h.list)
	r.Get("/expenses/export", h.export)
	r.Delete("/expenses/{id}", h.remove)
}

func (h ExpenseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string     `json:"title"`
		Amount      int64      `json:"amount"`
		Note        string     `json:"note"`
		ExpenseDate *time.Time `json:"expenseDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in := service.ExpenseInput{Title: req.Title, Amount: req.Amount, Note: req.Note}
	if req.ExpenseDate != nil {
		in.ExpenseDate = *req.ExpenseDate
	}
	expense, err := h.Shops.CreateExpense(r.Context(), currentShopID(r), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseView(expense))
}

func (h ExpenseHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", "50")
	rows, err := h.Shops.ListExpenses(r.Context(), currentShopID(r), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for i := range rows {
		out = append(out, expenseView(&rows[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h ExpenseHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Shops.DeleteExpense(r.Context(), currentShopID(r), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "expense deleted"})
}

func (h ExpenseHandler) export(w http.ResponseWriter, r *http.Request) {
	kind, ref, err := periodQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	rows, period, err := h.Shops.ListExpensesRange(r.Context(), currentShopID(r), kind, ref)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	suffix := fmt.Sprintf("%s_%s", period.From.Format("20060102"), period.To.AddDate(0, 0, -1).Format("20060102"))
	switch r.URL.Query().Get("format") {
	case "", "csv":
		data, err := exportExpensesCSV(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"expenses_%s.csv\"", suffix))
		_, _ = w.Write(data)
	case "xlsx", "excel":
		data, err := exportExpensesXLSX(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"expenses_%s.xlsx\"", suffix))
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use csv or xlsx)")
	}
}

func exportExpensesCSV(items []domain.Expense) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "title", "amount", "note", "date"})
	for _, e := range items {
		_ = w.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.Title,
			strconv.FormatInt(e.Amount, 10),
			e.Note,
			e.ExpenseDate.Format("2006-01-02"),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportExpensesXLSX(items []domain.Expense) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Expenses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"ID", "Title", "Amount", "Note", "Date"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, e := range items {
		row := r + 2
		values := []any{e.ID, e.Title, e.Amount, e.Note, e.ExpenseDate.Format("2006-01-02")}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 10)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "C", 14)
	_ = f.SetColWidth(sheet, "D", "D", 32)
	_ = f.SetColWidth(sheet, "E", "E", 12)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "E1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func expenseView(e *domain.Expense) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"shopId":      e.ShopID,
		"title":       e.Title,
		"amount":      e.Amount,
		"note":        e.Note,
		"expenseDate": e.ExpenseDate,
		"createdAt":   e.CreatedAt,
	}
}
