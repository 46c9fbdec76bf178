package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour // 7 days
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

// Auth handles account registration, password login and token validation.
type Auth struct {
	store     UserStore
	jwtSecret []byte

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates a new Auth handler. An empty secret generates an
// ephemeral one, invalidating tokens across restarts.
func NewAuth(store UserStore, secret string) *Auth {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	} else {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic("failed to generate JWT secret: " + err.Error())
		}
	}
	return &Auth{
		store:     store,
		jwtSecret: key,
		rateMap:   make(map[string]*rateEntry),
	}
}

// Register creates a new account and returns the user plus a fresh token.
func (a *Auth) Register(ctx context.Context, username, password string) (*User, string, error) {
	username = strings.TrimSpace(username)

	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return nil, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return nil, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	existing, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("database error")
	}
	if existing != nil {
		return nil, "", fmt.Errorf("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("internal error")
	}

	u := &User{
		ID:       uuid.NewString(),
		Username: username,
		Password: string(hash),
		Lvl:      1,
	}
	if err := a.store.PutUser(ctx, u); err != nil {
		return nil, "", fmt.Errorf("failed to create account")
	}

	token, err := a.generateToken(u.ID, u.Username)
	if err != nil {
		return nil, "", fmt.Errorf("internal error")
	}
	return u, token, nil
}

// Login authenticates a user and returns the user plus a JWT.
func (a *Auth) Login(ctx context.Context, username, password, ip string) (*User, string, error) {
	// Rate limiting
	if !a.checkRate(ip) {
		return nil, "", fmt.Errorf("too many login attempts, try again later")
	}

	u, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("database error")
	}
	if u == nil || u.Password == "" {
		return nil, "", fmt.Errorf("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid username or password")
	}

	token, err := a.generateToken(u.ID, u.Username)
	if err != nil {
		return nil, "", fmt.Errorf("internal error")
	}
	return u, token, nil
}

// ValidateToken validates a JWT and returns (userID, username, error).
func (a *Auth) ValidateToken(tokenStr string) (string, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	uid, ok := claims["uid"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	username, ok := claims["usr"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	return uid, username, nil
}

func (a *Auth) generateToken(userID, username string) (string, error) {
	claims := jwt.MapClaims{
		"uid": userID,
		"usr": username,
		"exp": time.Now().Add(jwtExpiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}

// GenerateGuestName creates a unique guest name like "Guest_a3f2"
func GenerateGuestName() string {
	b := make([]byte, 3)
	rand.Read(b)
	return "Guest_" + hex.EncodeToString(b)
}
