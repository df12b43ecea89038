package fakeapi

import (
	"time"

	"github.com/google/uuid"

	"oasip/internal/app/user"
	"oasip/internal/pkg/auth/jwt"
)

type account struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         user.Role `json:"role"`
	CreatedOn    time.Time `json:"createdOn"`
	UpdatedOn    time.Time `json:"updatedOn"`
	passwordHash string
}

type category struct {
	ID          int      `json:"id"`
	Name        string   `json:"eventCategoryName"`
	Description string   `json:"eventCategoryDescription,omitempty"`
	Duration    int      `json:"eventDuration"`
	Owners      []string `json:"-"`
}

type event struct {
	ID           int       `json:"id"`
	BookingName  string    `json:"bookingName"`
	BookingEmail string    `json:"bookingEmail"`
	StartTime    time.Time `json:"eventStartTime"`
	Duration     int       `json:"eventDuration"`
	Notes        string    `json:"eventNotes,omitempty"`
	Category     category  `json:"eventCategory"`
	BucketUUID   string    `json:"bucketUuid,omitempty"`
	CategoryID   int       `json:"-"`
}

func (e *event) end() time.Time {
	return e.StartTime.Add(time.Duration(e.Duration) * time.Minute)
}

type file struct {
	Name        string
	ContentType string
	Content     []byte
}

// Part is one part of a recorded multipart request.
type Part struct {
	Name string

	// IsFile is true when the part declared a filename parameter, even an empty one.
	IsFile   bool
	FileName string
	Size     int
	Value    string
}

// File returns the part named "file", if any.
func File(parts []Part) (Part, bool) {
	for _, p := range parts {
		if p.Name == "file" {
			return p, true
		}
	}
	return Part{}, false
}

func (s *Server) addAccountLocked(name, email, password string, role user.Role) *account {
	now := time.Now().UTC()
	acc := &account{
		ID:           s.nextUserID,
		Name:         name,
		Email:        email,
		Role:         role,
		CreatedOn:    now,
		UpdatedOn:    now,
		passwordHash: hashPassword(password),
	}
	s.nextUserID++
	s.accounts[email] = acc
	return acc
}

func (s *Server) accountByIDLocked(id int) *account {
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc
		}
	}
	return nil
}

func (s *Server) addEventLocked(e *event) *event {
	cat := s.categories[e.CategoryID]
	e.ID = s.nextEvent
	e.Duration = cat.Duration
	e.Category = *cat
	s.nextEvent++
	s.events[e.ID] = e
	return e
}

// overlapsLocked reports whether [start, start+duration) collides with another event of the category.
func (s *Server) overlapsLocked(categoryID int, start time.Time, duration int, excludeID int) bool {
	end := start.Add(time.Duration(duration) * time.Minute)
	for _, e := range s.events {
		if e.CategoryID != categoryID || e.ID == excludeID {
			continue
		}
		if start.Before(e.end()) && e.StartTime.Before(end) {
			return true
		}
	}
	return false
}

func (s *Server) storeFileLocked(name, contentType string, content []byte) string {
	id := uuid.NewString()
	s.files[id] = &file{Name: name, ContentType: contentType, Content: content}
	return id
}

func (s *Server) issueAccessToken(acc *account) (string, error) {
	payload := &jwt.Payload{Role: string(acc.Role), Name: acc.Name}
	payload.Subject = acc.Email
	payload.Id = uuid.NewString()

	token, err := jwt.GenerateToken(payload, s.secret, jwt.AccessTokenExpiration)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.issued[payload.Id] = true
	s.mu.Unlock()

	return token, nil
}

func (s *Server) issueRefreshToken(acc *account) (string, error) {
	payload := &jwt.Payload{Role: string(acc.Role)}
	payload.Subject = acc.Email
	payload.Id = uuid.NewString()
	return jwt.GenerateToken(payload, s.secret, jwt.RefreshTokenExpiration)
}
