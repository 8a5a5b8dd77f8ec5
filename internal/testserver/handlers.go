package testserver

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/homes/internal/client/models"
	"github.com/dmitrijs2005/homes/internal/client/query"
)

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	d, err := query.FromValues(r.URL.Query())
	if err != nil {
		writeValidation(w, err.Error())
		return
	}

	s.mu.Lock()
	matched := make([]models.Property, 0, len(s.properties))
	for _, p := range s.properties {
		if d.Match(p) {
			matched = append(matched, p)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, d.Page(matched))
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeValidation(w, "id must be a positive integer")
		return
	}
	s.mu.Lock()
	i := slices.IndexFunc(s.properties, func(p models.Property) bool { return p.ID == id })
	var p models.Property
	if i >= 0 {
		p = s.properties[i]
	}
	s.mu.Unlock()

	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Property not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getPropertyBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	s.mu.Lock()
	i := slices.IndexFunc(s.properties, func(p models.Property) bool { return p.Slug == slug })
	var p models.Property
	if i >= 0 {
		p = s.properties[i]
	}
	s.mu.Unlock()

	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Property not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createProperty(w http.ResponseWriter, r *http.Request) {
	var in models.PropertyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidation(w, "malformed body")
		return
	}
	if in.Title == nil || in.Price == nil || in.PropertyType == nil || in.City == nil {
		writeValidation(w, "title, price, property_type and city are required")
		return
	}

	p := models.Property{}
	apply(&p, in)
	writeJSON(w, http.StatusCreated, s.AddProperty(p))
}

func (s *Server) updateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeValidation(w, "id must be a positive integer")
		return
	}
	var in models.PropertyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidation(w, "malformed body")
		return
	}

	s.mu.Lock()
	i := slices.IndexFunc(s.properties, func(p models.Property) bool { return p.ID == id })
	if i < 0 {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Property not found")
		return
	}
	p := s.properties[i]
	apply(&p, in)
	now := s.now().UTC()
	p.UpdatedAt = &now
	s.properties[i] = p
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeValidation(w, "id must be a positive integer")
		return
	}
	s.mu.Lock()
	n := len(s.properties)
	s.properties = slices.DeleteFunc(s.properties, func(p models.Property) bool { return p.ID == id })
	removed := len(s.properties) < n
	s.mu.Unlock()

	if !removed {
		writeDetail(w, http.StatusNotFound, "Property not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitInquiry(w http.ResponseWriter, r *http.Request) {
	var in models.Inquiry
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidation(w, "malformed body")
		return
	}
	if len(strings.TrimSpace(in.Name)) < 2 || len(in.Message) < 10 {
		writeValidation(w, "name and message are too short")
		return
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		writeValidation(w, "value is not a valid email address")
		return
	}

	s.mu.Lock()
	rec := models.InquiryRecord{Inquiry: in, ID: s.allocID(), CreatedAt: s.now().UTC()}
	s.inquiries = append(s.inquiries, rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, models.InquiryConfirmation{
		ID:         rec.ID,
		PropertyID: rec.PropertyID,
		CreatedAt:  rec.CreatedAt,
	})
}

func (s *Server) listInquiries(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	s.mu.Lock()
	all := slices.Clone(s.inquiries)
	s.mu.Unlock()

	if skip > len(all) {
		skip = len(all)
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) markInquiryRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeValidation(w, "id must be a positive integer")
		return
	}
	s.mu.Lock()
	i := slices.IndexFunc(s.inquiries, func(q models.InquiryRecord) bool { return q.ID == id })
	if i >= 0 {
		s.inquiries[i].IsRead = true
	}
	s.mu.Unlock()

	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Inquiry not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeValidation(w, "malformed form")
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(email)]
	omit := s.omitLoginUser
	var (
		token string
		err   error
	)
	if ok && acc.password == password {
		token, err = s.sign(acc.user)
	}
	s.mu.Unlock()

	if !ok || acc.password != password {
		writeDetail(w, http.StatusUnauthorized, detailInvalidLogin)
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := models.LoginResponse{AccessToken: token, TokenType: "bearer"}
	if !omit {
		u := acc.user
		resp.User = &u
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidation(w, "malformed body")
		return
	}
	if in.Email == "" || len(in.Password) < 6 {
		writeValidation(w, "email and password are required")
		return
	}

	s.mu.Lock()
	_, exists := s.accounts[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}

	u := s.AddUser(models.User{Email: in.Email, Name: in.Name, Role: models.RoleUser}, in.Password)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func apply(p *models.Property, in models.PropertyInput) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Title, in.Title)
	set(&p.Description, in.Description)
	set(&p.City, in.City)
	set(&p.State, in.State)
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.PropertyType != nil {
		p.PropertyType = *in.PropertyType
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Address != nil {
		p.Address = in.Address
	}
	if in.ZipCode != nil {
		p.ZipCode = in.ZipCode
	}
	if in.Bedrooms != nil {
		p.Bedrooms = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		p.Bathrooms = *in.Bathrooms
	}
	if in.Area != nil {
		p.Area = *in.Area
	}
	if in.Parking != nil {
		p.Parking = *in.Parking
	}
	if in.Furnished != nil {
		p.Furnished = *in.Furnished
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsSpecialOffer != nil {
		p.IsSpecialOffer = *in.IsSpecialOffer
	}
	if in.OfferText != nil {
		p.OfferText = in.OfferText
	}
}
