package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"oasip/internal/app/user"
	"oasip/internal/pkg/auth/jwt"
)

type errorBody struct {
	Timestamp string            `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Path      string            `json:"path"`
	Errors    map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, fields map[string]string) {
	writeJSON(w, status, errorBody{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
		Errors:    fields,
	})
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// checkCredentials answers 404 for an unknown email and 401 for a wrong password.
func (s *Server) checkCredentials(w http.ResponseWriter, r *http.Request) (*account, bool) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Malformed JSON", nil)
		return nil, false
	}

	s.mu.Lock()
	acc, ok := s.accounts[in.Email]
	s.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "A user with the specified email DOES NOT exist", nil)
		return nil, false
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(in.Password)) != nil {
		writeError(w, r, http.StatusUnauthorized, "Password NOT Matched", nil)
		return nil, false
	}
	return acc, true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.checkCredentials(w, r)
	if !ok {
		return
	}

	access, err := s.issueAccessToken(acc)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to sign token", nil)
		return
	}
	refresh, err := s.issueRefreshToken(acc)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to sign token", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refresh,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(jwt.RefreshTokenExpiration.Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshes.Add(1)

	s.mu.Lock()
	gate := s.refreshGate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if d := time.Duration(s.refreshDelay.Load()); d > 0 {
		time.Sleep(d)
	}

	if s.rejectAll.Load() {
		writeError(w, r, http.StatusUnauthorized, "Refresh token is missing or has expired", nil)
		return
	}

	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, r, http.StatusUnauthorized, "Refresh token is missing or has expired", nil)
		return
	}
	claims, err := jwt.ParseToken(cookie.Value, s.secret)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "Refresh token is invalid", nil)
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[claims.Subject]
	s.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Refresh token is invalid", nil)
		return
	}

	access, err := s.issueAccessToken(acc)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to sign token", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: "", Path: "/", HttpOnly: true, MaxAge: -1})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.checkCredentials(w, r); !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "Password Matched")
}

// caller returns the signed-in account, or nil for anonymous requests.
func (s *Server) caller(r *http.Request) *account {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[payload.Subject]
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if acc := s.caller(r); acc == nil || acc.Role != user.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "You are not allowed to access this resource", nil)
		return false
	}
	return true
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	acc := s.caller(r)
	if acc == nil {
		writeError(w, r, http.StatusForbidden, "Unknown account", nil)
		return
	}

	categoryID, _ := strconv.Atoi(r.URL.Query().Get("categoryId"))
	eventType := strings.ToLower(r.URL.Query().Get("type"))
	var startAt time.Time
	if raw := r.URL.Query().Get("startAt"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "startAt must be an ISO date-time", nil)
			return
		}
		startAt = t
	}
	if eventType == "day" && startAt.IsZero() {
		writeError(w, r, http.StatusBadRequest, "startAt cannot be null for type DAY", nil)
		return
	}

	now := time.Now()
	s.mu.Lock()
	out := make([]event, 0, len(s.events))
	for id := 1; id < s.nextEvent; id++ {
		e, ok := s.events[id]
		if !ok || !s.visibleLocked(acc, e) {
			continue
		}
		if categoryID > 0 && e.CategoryID != categoryID {
			continue
		}
		switch eventType {
		case "upcoming":
			if !e.end().After(now) {
				continue
			}
		case "past":
			if e.end().After(now) {
				continue
			}
		case "day":
			if !sameDay(e.StartTime, startAt) {
				continue
			}
		}
		out = append(out, *e)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// visibleLocked applies the backend's ownership rules: admins see everything,
// lecturers their categories' events, students their own bookings.
func (s *Server) visibleLocked(acc *account, e *event) bool {
	switch acc.Role {
	case user.RoleAdmin:
		return true
	case user.RoleLecturer:
		for _, owner := range s.categories[e.CategoryID].Owners {
			if owner == acc.Email {
				return true
			}
		}
		return false
	default:
		return e.BookingEmail == acc.Email
	}
}

// eventForCaller loads an event and enforces ownership.
func (s *Server) eventForCaller(w http.ResponseWriter, r *http.Request) (*event, bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Invalid event id", nil)
		return nil, false
	}
	acc := s.caller(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		writeError(w, r, http.StatusNotFound, "Event with id "+strconv.Itoa(id)+" not found", nil)
		return nil, false
	}
	if acc == nil || (acc.Role != user.RoleAdmin && e.BookingEmail != acc.Email) {
		writeError(w, r, http.StatusForbidden, "You are not allowed to access this event", nil)
		return nil, false
	}
	return e, true
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.eventForCaller(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	out := *e
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTimeSlots(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.Atoi(r.URL.Query().Get("categoryId"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "categoryId is required", nil)
		return
	}
	startAt, err := time.Parse(time.RFC3339, r.URL.Query().Get("startAt"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "startAt is required", nil)
		return
	}
	exclude, _ := strconv.Atoi(r.URL.Query().Get("excludeEventId"))

	type slot struct {
		StartTime time.Time `json:"eventStartTime"`
		Duration  int       `json:"eventDuration"`
	}

	s.mu.Lock()
	out := []slot{}
	for id := 1; id < s.nextEvent; id++ {
		e, ok := s.events[id]
		if !ok || e.CategoryID != categoryID || e.ID == exclude || !sameDay(e.StartTime, startAt) {
			continue
		}
		out = append(out, slot{StartTime: e.StartTime, Duration: e.Duration})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

const maxUpload = 10 << 20

// readForm records every part of a multipart request.
func (s *Server) readForm(r *http.Request) ([]Part, map[string][]byte, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, err
	}

	var parts []Part
	contents := make(map[string][]byte)
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		data, err := io.ReadAll(io.LimitReader(p, maxUpload+1))
		if err != nil {
			return nil, nil, err
		}

		part := Part{
			Name:     p.FormName(),
			IsFile:   strings.Contains(p.Header.Get("Content-Disposition"), "filename="),
			FileName: p.FileName(),
			Size:     len(data),
		}
		if part.IsFile {
			contents[part.Name] = data
		} else {
			part.Value = string(data)
		}
		parts = append(parts, part)
	}

	s.mu.Lock()
	s.lastForm = parts
	s.mu.Unlock()

	return parts, contents, nil
}

func fieldValue(parts []Part, name string) (string, bool) {
	for _, p := range parts {
		if p.Name == name && !p.IsFile {
			return p.Value, true
		}
	}
	return "", false
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	parts, contents, err := s.readForm(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Malformed multipart body", nil)
		return
	}

	fields := map[string]string{}
	name, _ := fieldValue(parts, "bookingName")
	email, _ := fieldValue(parts, "bookingEmail")
	categoryRaw, _ := fieldValue(parts, "eventCategoryId")
	startRaw, _ := fieldValue(parts, "eventStartTime")
	notes, _ := fieldValue(parts, "eventNotes")

	if strings.TrimSpace(name) == "" {
		fields["bookingName"] = "must not be blank"
	}
	if !strings.Contains(email, "@") {
		fields["bookingEmail"] = "must be a well-formed email address"
	}
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		fields["eventStartTime"] = "must be an ISO date-time"
	}
	categoryID, _ := strconv.Atoi(categoryRaw)

	if acc := s.caller(r); acc != nil && acc.Role != user.RoleAdmin && acc.Email != email {
		writeError(w, r, http.StatusBadRequest, "Email in request body does not match the authenticated user", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categories[categoryID]
	if !ok {
		writeError(w, r, http.StatusNotFound, "Event category with id "+categoryRaw+" not found", nil)
		return
	}
	if _, exists := fields["eventStartTime"]; !exists && s.overlapsLocked(categoryID, start, cat.Duration, 0) {
		fields["eventStartTime"] = "Event overlaps with another event"
	}
	if len(fields) > 0 {
		writeError(w, r, http.StatusBadRequest, "Validation failed", fields)
		return
	}

	e := &event{
		BookingName:  strings.TrimSpace(name),
		BookingEmail: strings.TrimSpace(email),
		StartTime:    start.UTC(),
		CategoryID:   categoryID,
		Notes:        strings.TrimSpace(notes),
	}
	if f, ok := File(parts); ok && f.Size > 0 {
		e.BucketUUID = s.storeFileLocked(f.FileName, "application/octet-stream", contents["file"])
	}
	s.addEventLocked(e)

	writeJSON(w, http.StatusCreated, *e)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.eventForCaller(w, r)
	if !ok {
		return
	}

	parts, contents, err := s.readForm(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Malformed multipart body", nil)
		return
	}

	startRaw, hasStart := fieldValue(parts, "eventStartTime")
	notes, hasNotes := fieldValue(parts, "eventNotes")
	f, hasFile := File(parts)
	if !hasStart && !hasNotes && !hasFile {
		writeError(w, r, http.StatusBadRequest, "At least one of eventStartTime, eventNotes, or file must be provided", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if hasStart {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "Validation failed", map[string]string{"eventStartTime": "must be an ISO date-time"})
			return
		}
		if s.overlapsLocked(e.CategoryID, start, e.Duration, e.ID) {
			writeError(w, r, http.StatusBadRequest, "Validation failed", map[string]string{"eventStartTime": "Event overlaps with another event"})
			return
		}
		e.StartTime = start.UTC()
	}
	if hasNotes {
		e.Notes = strings.TrimSpace(notes)
	}
	if hasFile {
		if f.Size == 0 {
			delete(s.files, e.BucketUUID)
			e.BucketUUID = ""
		} else {
			delete(s.files, e.BucketUUID)
			e.BucketUUID = s.storeFileLocked(f.FileName, "application/octet-stream", contents["file"])
		}
	}

	writeJSON(w, http.StatusOK, *e)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := s.eventForCaller(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	delete(s.files, e.BucketUUID)
	delete(s.events, e.ID)
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	f, ok := s.files[chi.URLParam(r, "uuid")]
	s.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "File not found", nil)
		return
	}

	w.Header().Set("Content-Disposition", "inline; filename="+f.Name)
	if r.URL.Query().Get("noContent") == "true" {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, f.Name)
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Content)))
	_, _ = w.Write(f.Content)
}

func (s *Server) sortedCategoriesLocked(keep func(*category) bool) []category {
	out := []category{}
	for id := 1; id <= len(s.categories); id++ {
		if c, ok := s.categories[id]; ok && keep(c) {
			out = append(out, *c)
		}
	}
	return out
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := s.sortedCategoriesLocked(func(*category) bool { return true })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLecturerCategories(w http.ResponseWriter, r *http.Request) {
	acc := s.caller(r)
	if acc == nil || acc.Role != user.RoleLecturer {
		writeError(w, r, http.StatusForbidden, "Lecturers only", nil)
		return
	}

	s.mu.Lock()
	out := s.sortedCategoriesLocked(func(c *category) bool {
		for _, owner := range c.Owners {
			if owner == acc.Email {
				return true
			}
		}
		return false
	})
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Invalid category id", nil)
		return
	}

	var in struct {
		Name        *string `json:"eventCategoryName"`
		Description *string `json:"eventCategoryDescription"`
		Duration    *int    `json:"eventDuration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Malformed JSON", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		writeError(w, r, http.StatusNotFound, "Category not found", nil)
		return
	}
	if in.Name != nil {
		for _, other := range s.categories {
			if other.ID != id && strings.EqualFold(other.Name, strings.TrimSpace(*in.Name)) {
				writeError(w, r, http.StatusBadRequest, "Validation failed", map[string]string{"eventCategoryName": "Category name must be unique"})
				return
			}
		}
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Duration != nil {
		c.Duration = *in.Duration
	}
	writeJSON(w, http.StatusOK, *c)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	s.mu.Lock()
	out := []account{}
	for id := 1; id < s.nextUserID; id++ {
		if acc := s.accountByIDLocked(id); acc != nil {
			out = append(out, *acc)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, user.Roles)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id, _ := pathID(r)

	s.mu.Lock()
	acc := s.accountByIDLocked(id)
	var out account
	if acc != nil {
		out = *acc
	}
	s.mu.Unlock()

	if acc == nil {
		writeError(w, r, http.StatusNotFound, "User not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}

	var in struct {
		Name     string    `json:"name"`
		Email    string    `json:"email"`
		Password string    `json:"password"`
		Role     user.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Malformed JSON", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fields := map[string]string{}
	for _, acc := range s.accounts {
		if acc.Name == in.Name {
			fields["name"] = "Name must be unique"
		}
	}
	if _, exists := s.accounts[in.Email]; exists {
		fields["email"] = "Email must be unique"
	}
	if !in.Role.IsValid() {
		fields["role"] = "Unknown role"
	}
	if len(fields) > 0 {
		writeError(w, r, http.StatusBadRequest, "Validation failed", fields)
		return
	}

	acc := s.addAccountLocked(in.Name, in.Email, in.Password, in.Role)
	writeJSON(w, http.StatusCreated, *acc)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id, _ := pathID(r)

	var in struct {
		Name  *string    `json:"name"`
		Email *string    `json:"email"`
		Role  *user.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Malformed JSON", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accountByIDLocked(id)
	if acc == nil {
		writeError(w, r, http.StatusNotFound, "User not found", nil)
		return
	}
	if in.Name != nil {
		acc.Name = *in.Name
	}
	if in.Email != nil && *in.Email != acc.Email {
		if _, exists := s.accounts[*in.Email]; exists {
			writeError(w, r, http.StatusBadRequest, "Validation failed", map[string]string{"email": "Email must be unique"})
			return
		}
		delete(s.accounts, acc.Email)
		acc.Email = *in.Email
		s.accounts[acc.Email] = acc
	}
	if in.Role != nil {
		acc.Role = *in.Role
	}
	acc.UpdatedOn = time.Now().UTC()

	writeJSON(w, http.StatusOK, *acc)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id, _ := pathID(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accountByIDLocked(id)
	if acc == nil {
		writeError(w, r, http.StatusNotFound, "User not found", nil)
		return
	}
	delete(s.accounts, acc.Email)
	w.WriteHeader(http.StatusNoContent)
}
