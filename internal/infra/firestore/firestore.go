package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"checkout-service/internal/config"
)

// ErrMissingCredentials means the service-account env vars are not set.
// Callers treat this as "persistence disabled", not a startup failure.
var ErrMissingCredentials = errors.New("firebase credentials not configured (FIREBASE_PROJECT_ID, FIREBASE_CLIENT_EMAIL, FIREBASE_PRIVATE_KEY)")

// NewClientFromEnv builds a Firestore client from the three service-account
// environment values. The private key arrives with literal \n sequences when
// injected through a single-line env var and is unescaped here.
func NewClientFromEnv(ctx context.Context, cfg config.Firebase) (*firestore.Client, error) {
	if cfg.ProjectID == "" || cfg.ClientEmail == "" || cfg.PrivateKey == "" {
		return nil, ErrMissingCredentials
	}

	privateKey := strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")

	creds, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   cfg.ProjectID,
		"client_email": cfg.ClientEmail,
		"private_key":  privateKey,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, fmt.Errorf("assemble service account: %w", err)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}
	return client, nil
}
