package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/labstack/gommon/log"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and its storage bucket
type App struct {
	FirebaseApp *firebase.App
	Storage     *Storage
}

// InitFirebase initializes the Firebase application and the storage bucket used for uploads
func InitFirebase(ctx context.Context, credentialsPath, bucket string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	if bucket == "" {
		return nil, fmt.Errorf("firebase storage bucket not provided")
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucket}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	storageClient, err := firebaseApp.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase storage client: %w", err)
	}
	handle, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("error opening storage bucket %s: %w", bucket, err)
	}

	log.Info("Firebase app and storage client initialized successfully!")
	return &App{FirebaseApp: firebaseApp, Storage: NewStorage(handle, bucket)}, nil
}
