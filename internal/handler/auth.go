package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-payments/internal/config"
    "github.com/iliyamo/restaurant-payments/internal/repository"
    "github.com/iliyamo/restaurant-payments/internal/utils"
)

// StaffAuthHandler signs staff members in to the back-office dashboard.
// Accounts are provisioned out of band; there is no self-registration.
type StaffAuthHandler struct {
    Cfg   config.Config
    Staff *repository.StaffRepo
}

func NewStaffAuthHandler(cfg config.Config, s *repository.StaffRepo) *StaffAuthHandler {
    return &StaffAuthHandler{Cfg: cfg, Staff: s}
}

// ----- DTOs -----

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type loginResp struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
    Email   string    `json:"email"`
    Role    string    `json:"role"`
}

// Login verifies the staff credentials and issues an access token.  An
// unknown email and a wrong password produce the same response so the
// endpoint does not leak which accounts exist.
func (h *StaffAuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    staff, err := h.Staff.GetByEmail(ctx, req.Email)
    if err != nil {
        if err == repository.ErrStaffNotFound {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
    }
    if !utils.VerifyPassword(staff.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, staff.ID, staff.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }

    return c.JSON(http.StatusOK, loginResp{
        Token:   access.Token,
        Expires: access.Exp,
        Email:   staff.Email,
        Role:    staff.Role,
    })
}
