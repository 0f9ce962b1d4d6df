package volunteers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/EmpoweredVote/canvass/internal/db"
	"github.com/EmpoweredVote/canvass/internal/middleware"
	"github.com/EmpoweredVote/canvass/internal/utils"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionTTL is how long a login stays valid.
const SessionTTL = 6 * time.Hour

type handler struct {
	onLogout     LogoutHook
	coordinators map[string]bool
}

// roleFor returns the role an account with email should hold.
func (h *handler) roleFor(email string) string {
	if h.coordinators[email] {
		return RoleCoordinator
	}
	return RoleVolunteer
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *handler) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		http.Error(w, "Name, email and password are required", http.StatusBadRequest)
		return
	}

	var existing Volunteer
	err := db.DB.First(&existing, "email = ?", in.Email).Error
	if err == nil {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Failed to register volunteer", http.StatusInternalServerError)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Server error hashing password", http.StatusInternalServerError)
		return
	}

	v := Volunteer{
		ID:             utils.GenerateUUID(),
		Name:           in.Name,
		Email:          in.Email,
		Phone:          strings.TrimSpace(in.Phone),
		HashedPassword: string(hashed),
		Role:           h.roleFor(in.Email),
	}
	if err := db.DB.Create(&v).Error; err != nil {
		http.Error(w, "Failed to register volunteer", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{"volunteer_id": v.ID, "role": v.Role}).Info("volunteer registered")
	utils.WriteJSON(w, http.StatusCreated, map[string]string{
		"volunteer_id": v.ID,
		"name":         v.Name,
	})
}

func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Data", http.StatusBadRequest)
		return
	}

	var v Volunteer
	if err := db.DB.First(&v, "email = ?", normalizeEmail(in.Email)).Error; err != nil {
		http.Error(w, "Invalid Credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(v.HashedPassword), []byte(in.Password)); err != nil {
		http.Error(w, "Invalid Credentials", http.StatusUnauthorized)
		return
	}

	// Accounts listed as coordinators after they registered are promoted
	// on their next login.
	if role := h.roleFor(v.Email); role == RoleCoordinator && v.Role != role {
		if err := db.DB.Model(&v).Update("role", role).Error; err != nil {
			http.Error(w, "Failed to update role", http.StatusInternalServerError)
			return
		}
		log.WithField("volunteer_id", v.ID).Info("volunteer promoted to coordinator")
	}

	session := Session{
		SessionID:   utils.GenerateUUID(),
		VolunteerID: v.ID,
		ExpiresAt:   time.Now().Add(SessionTTL),
	}

	// One live session per volunteer: a new login replaces the old one.
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("volunteer_id = ?", v.ID).Delete(&Session{}).Error; err != nil {
			return err
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.SessionID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"volunteer_id": v.ID,
		"name":         v.Name,
	})
}

func (h *handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err != nil {
		http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
		return
	}

	var session Session
	if err := db.DB.First(&session, "session_id = ?", cookie.Value).Error; err != nil {
		http.Error(w, "Couldn't find session", http.StatusUnauthorized)
		return
	}
	if err := db.DB.Delete(&session).Error; err != nil {
		http.Error(w, "Failed to end session", http.StatusInternalServerError)
		return
	}
	if h.onLogout != nil {
		h.onLogout(session.VolunteerID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:   middleware.SessionCookie,
		Value:  "",
		MaxAge: -1,
		Path:   "/",
	})
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func MeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.GetVolunteerIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var v Volunteer
	if err := db.DB.First(&v, "id = ?", id).Error; err != nil {
		http.Error(w, "Couldn't find volunteer", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}

// UpdateMeHandler changes the caller's name, email or phone. Absent fields
// are left as they are.
func UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.GetVolunteerIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			http.Error(w, "Name cannot be empty", http.StatusBadRequest)
			return
		}
		updates["name"] = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			http.Error(w, "Email cannot be empty", http.StatusBadRequest)
			return
		}
		var count int64
		if err := db.DB.Model(&Volunteer{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
			log.WithError(err).Error("email uniqueness check failed")
			http.Error(w, "Failed to update volunteer", http.StatusInternalServerError)
			return
		}
		if count > 0 {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		updates["email"] = email
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&Volunteer{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			http.Error(w, "Failed to update volunteer", http.StatusInternalServerError)
			return
		}
	}

	var v Volunteer
	if err := db.DB.First(&v, "id = ?", id).Error; err != nil {
		http.Error(w, "Couldn't find volunteer", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
