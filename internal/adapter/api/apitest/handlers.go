package apitest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[strings.ToLower(req.Email)]
	if !ok || u.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	token, err := s.issue(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": s.userJSON(u.Email)})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[strings.ToLower(req.Email)]; exists {
		writeError(w, http.StatusConflict, "conflict", "email already registered")
		return
	}
	u := s.addUserLocked(req.Name, req.Email, req.Password)

	writeJSON(w, http.StatusCreated, s.userJSON(u.Email))
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(req.Email)
	if _, ok := s.users[key]; ok {
		s.resetTokens[key] = fmt.Sprintf("reset-%d", s.id())
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for email, token := range s.resetTokens {
		if token == req.Token {
			s.users[email].Password = req.NewPassword
			delete(s.resetTokens, email)
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	writeError(w, http.StatusBadRequest, "invalid_token", "invalid or expired reset token")
}

func (s *Server) myGroups(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("adminEmail")

	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.sortedGroups(func(g *group) bool { return g.accepted(email) }))
}

func (s *Server) pendingInvitations(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.sortedGroups(func(g *group) bool {
		i, ok := g.member(email)
		return ok && !g.members[i].accepted
	}))
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := &group{ID: s.id(), Name: req.Name, Description: req.Description}
	s.groups[strconv.Itoa(g.ID)] = g

	writeJSON(w, http.StatusCreated, s.groupJSON(g))
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.lookupGroup(w, r)
	if !ok {
		return
	}
	if _, exists := g.member(req.Email); exists {
		writeError(w, http.StatusConflict, "conflict", "already a member")
		return
	}

	g.members = append(g.members, membership{email: req.Email, accepted: true})
	writeJSON(w, http.StatusOK, s.groupJSON(g))
}

func (s *Server) invite(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[req.GroupID.String()]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "group not found")
		return
	}
	if _, exists := g.member(req.Email); exists {
		writeError(w, http.StatusConflict, "conflict", "already invited")
		return
	}

	g.members = append(g.members, membership{email: req.Email})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.lookupGroup(w, r)
	if !ok {
		return
	}
	i, ok := g.member(email)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no invitation")
		return
	}

	g.members[i].accepted = true
	w.WriteHeader(http.StatusOK)
}

func (s *Server) decline(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.lookupGroup(w, r)
	if !ok {
		return
	}
	i, ok := g.member(email)
	if !ok || g.members[i].accepted {
		writeError(w, http.StatusNotFound, "not_found", "no invitation")
		return
	}

	g.members = append(g.members[:i], g.members[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.lookupGroup(w, r)
	if !ok {
		return
	}
	if i, exists := g.member(email); exists {
		g.members[i].accepted = true
	} else {
		g.members = append(g.members, membership{email: email, accepted: true})
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("userEmail")

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.lookupGroup(w, r)
	if !ok {
		return
	}
	i, ok := g.member(email)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "not a member")
		return
	}

	g.members = append(g.members[:i], g.members[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookupGroup(w, r); !ok {
		return
	}
	delete(s.groups, chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decode(w, r, &req) {
		return
	}

	total, err := parseAmount(req.Amount)
	if err != nil || !total.IsPositive() {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[req.GroupID.String()]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "group not found")
		return
	}

	payer, ok := s.acceptedUser(g, req.PayerID.String())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_payer", "payer is not a member of the group")
		return
	}

	e := &expense{
		ID:          s.id(),
		GroupID:     g.ID,
		Amount:      total,
		Description: req.Description,
		Date:        req.Date,
		PayerEmail:  payer.Email,
	}

	sum := decimal.Zero
	for _, sr := range req.Splits {
		member, ok := s.acceptedUser(g, sr.UserID.String())
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_split", "split member is not in the group")
			return
		}
		share, err := parseAmount(sr.Share)
		if err != nil || share.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid_split", "invalid share")
			return
		}
		sum = sum.Add(share)
		e.Splits = append(e.Splits, split{ID: s.id(), UserEmail: member.Email, Share: share})
	}

	if sum.Sub(total).Abs().GreaterThan(decimal.New(1, -2)) {
		writeError(w, http.StatusUnprocessableEntity, "split_mismatch", "shares do not add up to the amount")
		return
	}

	s.expenses = append(s.expenses, e)
	writeJSON(w, http.StatusCreated, s.expenseJSON(e))
}

func (s *Server) acceptedUser(g *group, id string) (*user, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, false
	}
	u, ok := s.userByID(n)
	if !ok || !g.accepted(u.Email) {
		return nil, false
	}
	return u, true
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.lookupGroup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.groupExpenses(g.ID))
}

func (s *Server) groupExpenses(groupID int) []expenseJSON {
	out := []expenseJSON{}
	for _, e := range s.expenses {
		if e.GroupID == groupID {
			out = append(out, s.expenseJSON(e))
		}
	}
	return out
}

func (s *Server) notify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.expenses {
		if strconv.Itoa(e.ID) == id {
			s.notified = append(s.notified, id)
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "expense not found")
}

func (s *Server) recordSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if !decode(w, r, &req) {
		return
	}

	amt, err := parseAmount(req.Amount)
	if err != nil || !amt.IsPositive() {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[req.GroupID.String()]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "group not found")
		return
	}
	payer, ok := s.acceptedUser(g, req.PayerID.String())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_payer", "payer is not a member of the group")
		return
	}
	payee, ok := s.acceptedUser(g, req.PayeeID.String())
	if !ok || payee.ID == payer.ID {
		writeError(w, http.StatusBadRequest, "invalid_payee", "invalid payee")
		return
	}

	st := &settlement{
		ID:         s.id(),
		GroupID:    g.ID,
		PayerEmail: payer.Email,
		PayeeEmail: payee.Email,
		Amount:     amt,
		Date:       req.Date,
	}
	s.settlements = append(s.settlements, st)

	writeJSON(w, http.StatusCreated, s.settlementJSON(st))
}

func (s *Server) listSettlements(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.lookupGroup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.groupSettlements(g.ID))
}

func (s *Server) groupSettlements(groupID int) []settlementJSON {
	out := []settlementJSON{}
	for _, st := range s.settlements {
		if st.GroupID == groupID {
			out = append(out, s.settlementJSON(st))
		}
	}
	return out
}

// userReport aggregates the user's activity the way the remote service does:
// paid is what the user paid for expenses, owed is the user's split shares.
func (s *Server) userReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	u, ok := s.userByID(n)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	total, paid, owed := decimal.Zero, decimal.Zero, decimal.Zero
	report := userReportJSON{GroupReports: []groupReportJSON{}}

	for _, g := range s.sortedGroups(func(g *group) bool { return g.accepted(u.Email) }) {
		section := groupReportJSON{GroupID: g.ID, GroupName: g.Name, Expenses: []expenseJSON{}, Settlements: []settlementJSON{}}
		for _, e := range s.expenses {
			if e.GroupID != g.ID {
				continue
			}
			total = total.Add(e.Amount)
			if strings.EqualFold(e.PayerEmail, u.Email) {
				paid = paid.Add(e.Amount)
			}
			for _, sp := range e.Splits {
				if strings.EqualFold(sp.UserEmail, u.Email) {
					owed = owed.Add(sp.Share)
				}
			}
			section.Expenses = append(section.Expenses, s.expenseJSON(e))
		}
		section.Settlements = s.groupSettlements(g.ID)
		report.GroupReports = append(report.GroupReports, section)
	}

	report.TotalExpenses = jsonAmount(total)
	report.TotalPaid = jsonAmount(paid)
	report.TotalOwed = jsonAmount(owed)
	report.Balance = jsonAmount(paid.Sub(owed))

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) groupReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.lookupGroup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, groupReportJSON{
		GroupID:     g.ID,
		GroupName:   g.Name,
		Expenses:    s.groupExpenses(g.ID),
		Settlements: s.groupSettlements(g.ID),
	})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g, ok := s.lookupGroup(w, r)
	s.mu.Unlock()
	if !ok {
		return
	}

	var contentType, ext string
	switch chi.URLParam(r, "format") {
	case "excel":
		contentType, ext = "application/vnd.ms-excel", "xls"
	case "pdf":
		contentType, ext = "application/pdf", "pdf"
	default:
		writeError(w, http.StatusBadRequest, "invalid_format", "unknown export format")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="group-%d.%s"`, g.ID, ext))
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s report for %s", strings.ToUpper(ext), g.Name)
}
