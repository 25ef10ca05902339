package routes

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/past0101/gstravel/app"
	"github.com/past0101/gstravel/httpx"
	"github.com/past0101/gstravel/log"
	"github.com/past0101/gstravel/model"
)

// usersPageSize is the fixed page length of the account listing; the
// page token is opaque to clients and merely passed back through.
const usersPageSize = 50

func encodePageToken(offset int) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodePageToken(token string) (int, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(raw))
}

func ListUsers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset := 0
		if token := r.URL.Query().Get("nextPageToken"); token != "" {
			var err error
			if offset, err = decodePageToken(token); err != nil || offset < 0 {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "users.list.page_token")
				return
			}
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT uid, email, display_name, phone, disabled, created_at
			FROM user
			ORDER BY created_at, uid
			LIMIT ? OFFSET ?`,
			usersPageSize+1, offset,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_users", err)
			return
		}
		defer rows.Close()

		users := []model.User{}
		for rows.Next() {
			u := model.User{}
			err = rows.Scan(&u.UID, &u.Email, &u.DisplayName, &u.Phone, &u.Disabled, &u.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_users.scan", err)
				return
			}
			users = append(users, u)
		}

		var nextToken *string
		if len(users) > usersPageSize {
			users = users[:usersPageSize]
			token := encodePageToken(offset + usersPageSize)
			nextToken = &token
		}

		render.JSON(w, r, map[string]any{
			"users":         users,
			"nextPageToken": nextToken,
		})
	}
}

func CreateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email       string `json:"email"`
			Password    string `json:"password"`
			DisplayName string `json:"displayName"`
			Phone       string `json:"phone"`
			Disabled    bool   `json:"disabled"`
		}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if body.Email == "" || body.Password == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "users.create",
				"email and password are required")
			return
		}

		phone := strings.TrimSpace(body.Phone)
		if phone != "" {
			if normalized, err := model.NormalizePhone(phone); err == nil {
				phone = normalized
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.LogInternalError(w, "users.create.hash", err)
			return
		}

		uid := uuid.Must(uuid.NewV4()).String()
		_, err = app.ExecContext(r.Context(), `
			INSERT INTO user (uid, email, display_name, phone, password_hash, disabled, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uid, body.Email, strings.TrimSpace(body.DisplayName), phone,
			string(hash), body.Disabled, time.Now().UTC(),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_user", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{"uid": uid})
	}
}

func UpdateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		var body struct {
			DisplayName *string `json:"displayName"`
			Phone       *string `json:"phone"`
			Password    *string `json:"password"`
			Disabled    *bool   `json:"disabled"`
		}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		email, err := userEmail(app, r, uid)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "update_user", uid)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_user", err)
			return
		}

		// the configured administrator account cannot be disabled
		if body.Disabled != nil && *body.Disabled && protectedAccount(app, email) {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.WarnLevel, "users.update.protected",
				"the administrator account cannot be disabled")
			return
		}

		if body.DisplayName != nil {
			if _, err := app.ExecContext(r.Context(),
				"UPDATE user SET display_name = ? WHERE uid = ?", strings.TrimSpace(*body.DisplayName), uid); err != nil {
				httpx.LogInternalError(w, "db.update_user", err)
				return
			}
		}
		if body.Phone != nil {
			phone := strings.TrimSpace(*body.Phone)
			if phone != "" {
				if normalized, err := model.NormalizePhone(phone); err == nil {
					phone = normalized
				}
			}
			if _, err := app.ExecContext(r.Context(),
				"UPDATE user SET phone = ? WHERE uid = ?", phone, uid); err != nil {
				httpx.LogInternalError(w, "db.update_user", err)
				return
			}
		}
		if body.Password != nil && *body.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if err != nil {
				httpx.LogInternalError(w, "users.update.hash", err)
				return
			}
			if _, err := app.ExecContext(r.Context(),
				"UPDATE user SET password_hash = ? WHERE uid = ?", string(hash), uid); err != nil {
				httpx.LogInternalError(w, "db.update_user", err)
				return
			}
		}
		if body.Disabled != nil {
			if _, err := app.ExecContext(r.Context(),
				"UPDATE user SET disabled = ? WHERE uid = ?", *body.Disabled, uid); err != nil {
				httpx.LogInternalError(w, "db.update_user", err)
				return
			}
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		email, err := userEmail(app, r, uid)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "delete_user", uid)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_user", err)
			return
		}

		if protectedAccount(app, email) {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.WarnLevel, "users.delete.protected",
				"the administrator account cannot be deleted")
			return
		}

		if _, err := app.ExecContext(r.Context(), "DELETE FROM user WHERE uid = ?", uid); err != nil {
			httpx.LogInternalError(w, "db.delete_user", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func userEmail(app app.App, r *http.Request, uid string) (string, error) {
	var email string
	err := app.QueryRowContext(r.Context(), "SELECT email FROM user WHERE uid = ?", uid).Scan(&email)
	return email, err
}

func protectedAccount(app app.App, email string) bool {
	return app.AdminEmail != "" && strings.EqualFold(email, app.AdminEmail)
}
