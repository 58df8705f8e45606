// auth-mock is a local stand-in for the external token issuer. It reads a
// JSON user map and mints HS256 tokens the API accepts, so the service can be
// exercised end to end without the real identity provider.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type userEntry struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func main() {
	var (
		port   = flag.String("port", "9098", "port to listen on")
		secret = flag.String("secret", os.Getenv("JWT_SECRET"), "shared HS256 secret")
		data   = flag.String("data", "mock-users.json", "path to mock user file")
		ttl    = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	if *secret == "" {
		log.Fatal("secret is required (flag or JWT_SECRET)")
	}

	file, err := os.ReadFile(*data)
	if err != nil {
		log.Fatalf("read mock users: %v", err)
	}

	var users map[string]userEntry
	if err := json.Unmarshal(file, &users); err != nil {
		log.Fatalf("parse mock users: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		user, ok := users[username]
		if !ok {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}

		now := time.Now()
		claims := jwt.MapClaims{
			"sub":      user.ID,
			"username": username,
			"role":     user.Role,
			"iat":      now.Unix(),
			"exp":      now.Add(*ttl).Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(*secret))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"token": signed}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	addr := ":" + *port
	log.Printf("mock token issuer listening on %s (%d users)", addr, len(users))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
