package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

type addItemRequest struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	TotalCopies int    `json:"total_copies"`
}

type addItemResponse struct {
	OK   bool         `json:"ok"`
	Item lending.Item `json:"item"`
}

type issueRequest struct {
	BookCode string `json:"book_code"`
	Name     string `json:"name"`
	College  string `json:"college"`
	Phone    string `json:"phone"`
	DueDate  string `json:"due_date"`
}

type issueResponse struct {
	OK   bool         `json:"ok"`
	Loan lending.Loan `json:"loan"`
}

type returnRequest struct {
	BookCode string `json:"book_code"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type returnResponse struct {
	OK      bool         `json:"ok"`
	Message string       `json:"message"`
	Loan    lending.Loan `json:"loan"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeMalformedBody(w)
		return
	}

	item, err := s.lending.AddItem(r.Context(), lending.NewItem{
		Code:        body.Code,
		Title:       body.Title,
		Author:      body.Author,
		TotalCopies: body.TotalCopies,
	})
	if err != nil {
		if lending.KindOf(err) == lending.KindValidation {
			s.writeJSON(w, http.StatusBadRequest, validationResponse(err, itemFieldNames))
			return
		}

		s.writeError(w, r, err)

		return
	}

	s.writeJSON(w, http.StatusCreated, addItemResponse{OK: true, Item: item})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.lending.ListItems(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.lending.SearchItems(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.lending.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleItemByCode(w http.ResponseWriter, r *http.Request) {
	item, err := s.lending.ItemByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	var body issueRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeMalformedBody(w)
		return
	}

	loan, err := s.lending.Issue(r.Context(), lending.IssueRequest{
		ItemCode:     body.BookCode,
		BorrowerName: body.Name,
		Affiliation:  body.College,
		ContactID:    body.Phone,
		DueDate:      body.DueDate,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, issueResponse{OK: true, Loan: loan})
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	var body returnRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeMalformedBody(w)
		return
	}

	loan, err := s.lending.Return(r.Context(), lending.ReturnRequest{
		ItemCode:     body.BookCode,
		BorrowerName: body.Name,
		ContactID:    body.Phone,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, returnResponse{OK: true, Message: "Book returned successfully", Loan: loan})
}

func (s *Server) handleCurrentLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.lending.CurrentLoans(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loans)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.lending.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})

		return
	}

	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
