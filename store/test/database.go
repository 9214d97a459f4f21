package test

import (
	"context"
	"fmt"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/burnedikt/diasend-nightscout-bridge/store"
	"github.com/burnedikt/diasend-nightscout-bridge/test"
)

const (
	mongoTestHost = "mongodb://127.0.0.1:27017"
	mongoTimeout  = time.Second * 5
)

var (
	database *mongo.Database
)

func testHost() string {
	if host := os.Getenv("NIGHTSCOUT_TEST_MONGO_URI"); host != "" {
		return host
	}
	return mongoTestHost
}

// SetupDatabase connects to the test instance and skips the suite when none is reachable.
func SetupDatabase() {
	client, err := store.NewClientFromURI(testHost())
	Expect(err).ToNot(HaveOccurred())

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		Skip(fmt.Sprintf("mongo is not reachable at %s: %v", testHost(), err))
	}

	databaseName := fmt.Sprintf("nightscout_test_%s_%d", test.Faker.Lorem().Word(), GinkgoParallelProcess())
	database = client.Database(databaseName)
}

func TeardownDatabase() {
	if database == nil {
		return
	}
	err := database.Drop(context.Background())
	Expect(err).ToNot(HaveOccurred())

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	Expect(database.Client().Disconnect(ctx)).ToNot(HaveOccurred())
	database = nil
}

func GetTestDatabase() *mongo.Database {
	Expect(database).ToNot(BeNil())
	return database
}
