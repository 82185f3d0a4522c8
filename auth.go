package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mauricedolibois/bubblepop/db"
)

const jwtIssuer = "bubblepop"

var (
	googleOauthConfig *oauth2.Config
	oauthStateString  string
	jwtSecret         []byte
	frontendURL       = "http://localhost:3000"
)

type UserSession struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Picture     string `json:"picture"`
	Token       string `json:"token"`
	BestScore   int    `json:"bestScore"`
	GamesPlayed int    `json:"gamesPlayed"`
}

type JWTClaims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// Identity is who a connection or request belongs to. Guests have no UserID.
type Identity struct {
	UserID string
	Name   string
	Token  string
}

func (id Identity) Guest() bool { return id.UserID == "" }

// identityFromToken never fails: a missing or invalid token yields a guest.
func identityFromToken(tokenString string) Identity {
	if tokenString == "" {
		return Identity{}
	}
	claims, err := verifyJWT(tokenString)
	if err != nil {
		return Identity{}
	}
	return Identity{UserID: claims.UserID, Name: claims.Name, Token: tokenString}
}

// bearerToken extracts the token from an Authorization header, "Bearer " optional.
func bearerToken(r *http.Request) string {
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

func initAuth(cfg Config) {
	frontendURL = cfg.FrontendURL

	jwtSecretStr := os.Getenv("JWT_SECRET")
	if jwtSecretStr == "" {
		secret := make([]byte, 32)
		rand.Read(secret)
		jwtSecret = secret
		log.Println("Warning: JWT_SECRET not set, using randomly generated secret")
	} else {
		jwtSecret = []byte(jwtSecretStr)
	}

	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback")

	// Guests can always play, so missing credentials only disable Google login
	if clientID == "" || clientID == "your_google_client_id_here" ||
		clientSecret == "" || clientSecret == "your_google_client_secret_here" {
		log.Println("[AUTH] Warning: GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set, Google login disabled")
		return
	}

	googleOauthConfig = &oauth2.Config{
		RedirectURL:  redirectURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	b := make([]byte, 32)
	rand.Read(b)
	oauthStateString = base64.URLEncoding.EncodeToString(b)
	log.Printf("[AUTH] Google OAuth initialized (redirect: %s)", redirectURL)
}

func setCORSHeaders(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", frontendURL)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if googleOauthConfig == nil {
		http.Error(w, "google login is not configured", http.StatusServiceUnavailable)
		return
	}
	log.Printf("[AUTH] Google OAuth login initiated from IP: %s", r.RemoteAddr)
	url := googleOauthConfig.AuthCodeURL(oauthStateString, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if googleOauthConfig == nil {
		http.Error(w, "google login is not configured", http.StatusServiceUnavailable)
		return
	}
	log.Printf("[AUTH] OAuth callback received from IP: %s", r.RemoteAddr)

	state := r.FormValue("state")
	if state != oauthStateString {
		log.Printf("[AUTH] ERROR: Invalid OAuth state - potential CSRF attack from IP: %s", r.RemoteAddr)
		http.Redirect(w, r, fmt.Sprintf("%s/login?error=invalid_state", frontendURL), http.StatusTemporaryRedirect)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	code := r.FormValue("code")
	token, err := googleOauthConfig.Exchange(ctx, code)
	if err != nil {
		log.Printf("[AUTH] ERROR: Code exchange failed: %s", err.Error())
		http.Redirect(w, r, fmt.Sprintf("%s/login?error=exchange_failed", frontendURL), http.StatusTemporaryRedirect)
		return
	}

	userInfo, err := getUserInfo(ctx, token)
	if err != nil {
		log.Printf("[AUTH] ERROR: Failed to get user info: %s", err.Error())
		http.Redirect(w, r, fmt.Sprintf("%s/login?error=userinfo_failed", frontendURL), http.StatusTemporaryRedirect)
		return
	}
	log.Printf("[AUTH] User info retrieved: Email=%s, Name=%s, ID=%s", userInfo.Email, userInfo.Name, userInfo.ID)

	if err := db.SaveUserWithMock(ctx, db.BubbleUser{
		UserID:  userInfo.ID,
		Email:   userInfo.Email,
		Name:    userInfo.Name,
		Picture: userInfo.Picture,
	}); err != nil {
		// Login still works, stats just won't be tracked
		log.Printf("[AUTH] ERROR: Failed to persist user %s: %v", userInfo.Email, err)
	}

	jwtToken, err := generateJWT(userInfo)
	if err != nil {
		log.Printf("[AUTH] ERROR: Failed to generate JWT: %s", err.Error())
		http.Redirect(w, r, fmt.Sprintf("%s/login?error=token_generation_failed", frontendURL), http.StatusTemporaryRedirect)
		return
	}

	log.Printf("[AUTH] Redirecting user %s to frontend callback", userInfo.Email)
	http.Redirect(w, r, fmt.Sprintf("%s/auth/callback?token=%s", frontendURL, jwtToken), http.StatusTemporaryRedirect)
}

func getUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	client := googleOauthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read userinfo: %w", err)
	}

	var userInfo GoogleUserInfo
	if err := json.Unmarshal(data, &userInfo); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &userInfo, nil
}

func generateJWT(userInfo *GoogleUserInfo) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:  userInfo.ID,
		Email:   userInfo.Email,
		Name:    userInfo.Name,
		Picture: userInfo.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(jwtSecret)
	if err != nil {
		log.Printf("[AUTH] ERROR: Failed to sign JWT token: %s", err.Error())
		return "", err
	}
	return signedToken, nil
}

func verifyJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	}, jwt.WithIssuer(jwtIssuer))

	if err != nil {
		log.Printf("[AUTH] JWT rejected: %s", err.Error())
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func handleVerifySession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	setCORSHeaders(w, "GET, POST, OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	tokenString := bearerToken(r)
	if tokenString == "" {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "no token provided"})
		return
	}

	claims, err := verifyJWT(tokenString)
	if err != nil {
		log.Printf("[AUTH] ERROR: Session verification failed from IP: %s - %s", r.RemoteAddr, err.Error())
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired token"})
		return
	}

	session := &UserSession{
		ID:      claims.UserID,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		Token:   tokenString,
	}
	if user, err := db.GetUserWithMock(r.Context(), claims.UserID); err == nil && user != nil {
		session.BestScore = user.BestScore
		session.GamesPlayed = user.GamesPlayed
	}

	json.NewEncoder(w).Encode(session)
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	setCORSHeaders(w, "POST, OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	// With JWT, logout is handled client-side by removing the token
	log.Printf("[AUTH] Logout request from IP: %s", r.RemoteAddr)
	json.NewEncoder(w).Encode(map[string]string{"message": "logged out successfully"})
}
