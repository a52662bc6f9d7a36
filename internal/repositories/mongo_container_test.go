package repositories_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/socials/backend/internal/repositories"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// One mongod serves every test in the package; each test gets its own database.
var (
	mongoOnce      sync.Once
	mongoContainer testcontainers.Container
	mongoClient    *mongo.Client
	mongoErr       error
)

func TestMain(m *testing.M) {
	code := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if mongoClient != nil {
		_ = mongoClient.Disconnect(ctx)
	}
	if mongoContainer != nil {
		_ = mongoContainer.Terminate(ctx)
	}
	os.Exit(code)
}

func startMongo() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(time.Minute),
	}
	mongoContainer, mongoErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if mongoErr != nil {
		return
	}

	host, err := mongoContainer.Host(ctx)
	if err != nil {
		mongoErr = err
		return
	}
	port, err := mongoContainer.MappedPort(ctx, "27017/tcp")
	if err != nil {
		mongoErr = err
		return
	}

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	mongoClient, mongoErr = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if mongoErr != nil {
		return
	}
	mongoErr = mongoClient.Ping(ctx, nil)
}

// testDatabase returns a fresh indexed database on the shared container.
// It skips in -short mode and when no container runtime is reachable.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	mongoOnce.Do(startMongo)
	require.NoError(t, mongoErr, "start mongo container")

	db := mongoClient.Database("socials_" + primitive.NewObjectID().Hex())
	require.NoError(t, repositories.EnsureIndexes(context.Background(), db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
	})
	return db
}
