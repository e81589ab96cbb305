package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/chathub-go/apperror"
	"github.com/user/chathub-go/config"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
	pgUniqueViolation = "23505"
	// registerAttempts bounds the retry loop on (username, tag) write races.
	registerAttempts = 5
)

// Service provides identity operations: registration, authentication, and
// session token management.
type Service struct {
	dbPool     *pgxpool.Pool
	authConfig config.AuthConfig
}

// NewService creates a new identity Service.
func NewService(dbPool *pgxpool.Pool, authConfig config.AuthConfig) *Service {
	return &Service{
		dbPool:     dbPool,
		authConfig: authConfig,
	}
}

// CustomClaims embeds jwt.RegisteredClaims and adds the user reference and
// token type ("access" or "refresh").
type CustomClaims struct {
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Register creates a new user, assigning a free 4-digit tag for the display
// name. The (username, tag) unique constraint is the authoritative guard
// against concurrent registrations picking the same tag: a collision simply
// retries with a fresh sample.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if strings.Contains(req.Username, HandleSeparator) {
		return nil, apperror.NewValidationError(
			fmt.Sprintf("display name must not contain %q", HandleSeparator), nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user := &User{
		Username:       req.Username,
		Email:          strings.ToLower(req.Email),
		HashedPassword: string(hashedPassword),
	}

	for attempt := 0; attempt < registerAttempts; attempt++ {
		taken, err := s.existingTags(ctx, req.Username)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to load existing tags", err)
		}

		tagNum, ok := chooseTag(taken, rand.Intn)
		if !ok {
			return nil, apperror.NewTagExhaustedError(
				fmt.Sprintf("no free tag left for display name %q", req.Username), nil)
		}
		user.Tag = FormatTag(tagNum)

		err = s.dbPool.QueryRow(ctx, `
			INSERT INTO users (username, tag, password, email)
			VALUES ($1, $2, $3, NULLIF($4, ''))
			RETURNING id, created_at, last_activity`,
			user.Username, user.Tag, user.HashedPassword, user.Email,
		).Scan(&user.ID, &user.CreatedAt, &user.LastActivity)
		if err == nil {
			return user, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// Lost the race for this tag; sample again.
			continue
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}

	return nil, apperror.NewConflictError(
		fmt.Sprintf("could not assign a unique tag for %q after %d attempts", req.Username, registerAttempts), nil)
}

// Authenticate verifies a display name, optional tag, and password, and
// returns the matching user. Password comparison goes through bcrypt, which
// is constant-time, so failures do not leak which part was wrong.
func (s *Service) Authenticate(ctx context.Context, username, tag, password string) (*User, error) {
	candidates, err := s.usersByName(ctx, username, tag)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to look up user", err)
	}

	for i := range candidates {
		u := &candidates[i]
		if bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) == nil {
			return u, nil
		}
	}
	return nil, apperror.NewAuthError("invalid credentials", nil)
}

// Login authenticates a user, records the activity, and issues tokens.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.Authenticate(ctx, req.Username, req.Tag, req.Password)
	if err != nil {
		return nil, err
	}

	// Logging in counts as activity.
	if _, err := s.dbPool.Exec(ctx,
		`UPDATE users SET last_activity = now() WHERE id = $1`, user.ID); err != nil {
		return nil, apperror.NewDatabaseError("failed to record login activity", err)
	}

	return s.generateTokens(user)
}

// RefreshToken issues a new access token from a valid refresh token.
func (s *Service) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenResponse, error) {
	claims, err := s.validateToken(refreshTokenString, tokenTypeRefresh)
	if err != nil {
		return nil, apperror.NewAuthError("invalid refresh token", err)
	}

	user, err := s.userByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	newAccessToken, newAccessExpiresAt, err := s.generateSpecificToken(user.ID, tokenTypeAccess, s.authConfig.AccessTokenDuration)
	if err != nil {
		return nil, apperror.NewInternalError("failed to generate new access token", err)
	}

	return &TokenResponse{
		UserID:       user.ID,
		Handle:       user.Handle(),
		AccessToken:  newAccessToken,
		RefreshToken: refreshTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    newAccessExpiresAt.Unix(),
	}, nil
}

func (s *Service) generateTokens(user *User) (*TokenResponse, error) {
	accessToken, accessExpiresAt, err := s.generateSpecificToken(user.ID, tokenTypeAccess, s.authConfig.AccessTokenDuration)
	if err != nil {
		return nil, apperror.NewInternalError("failed to generate access token", err)
	}

	refreshToken, _, err := s.generateSpecificToken(user.ID, tokenTypeRefresh, s.authConfig.RefreshTokenDuration)
	if err != nil {
		return nil, apperror.NewInternalError("failed to generate refresh token", err)
	}

	return &TokenResponse{
		UserID:       user.ID,
		Handle:       user.Handle(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    accessExpiresAt.Unix(),
	}, nil
}

func (s *Service) generateSpecificToken(userID int, tokenType string, duration time.Duration) (string, time.Time, error) {
	expirationTime := time.Now().Add(duration)
	claims := &CustomClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "chathub",
			Subject:   fmt.Sprintf("%d", userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.authConfig.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expirationTime, nil
}

func (s *Service) validateToken(tokenString string, expectedTokenType string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.authConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.TokenType != expectedTokenType {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", expectedTokenType, claims.TokenType)
	}
	return claims, nil
}

// --- Database helpers ---

func (s *Service) existingTags(ctx context.Context, username string) (map[int]struct{}, error) {
	rows, err := s.dbPool.Query(ctx,
		`SELECT tag FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := make(map[int]struct{})
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		var n int
		if _, err := fmt.Sscanf(tag, "%d", &n); err == nil {
			taken[n] = struct{}{}
		}
	}
	return taken, rows.Err()
}

func (s *Service) usersByName(ctx context.Context, username, tag string) ([]User, error) {
	query := `
		SELECT id, username, tag, COALESCE(email, ''), password, created_at, last_activity
		FROM users
		WHERE username = $1`
	args := []interface{}{username}
	if tag != "" {
		query += ` AND tag = $2`
		args = append(args, tag)
	}
	query += ` ORDER BY id`

	rows, err := s.dbPool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Tag, &u.Email, &u.HashedPassword, &u.CreatedAt, &u.LastActivity); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Service) userByID(ctx context.Context, userID int) (*User, error) {
	var u User
	err := s.dbPool.QueryRow(ctx, `
		SELECT id, username, tag, COALESCE(email, ''), password, created_at, last_activity
		FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Username, &u.Tag, &u.Email, &u.HashedPassword, &u.CreatedAt, &u.LastActivity)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user %d not found", userID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	return &u, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
