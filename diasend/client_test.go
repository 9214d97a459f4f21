package diasend_test

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/diasend"
	diasendTest "github.com/burnedikt/diasend-nightscout-bridge/diasend/test"
	"github.com/burnedikt/diasend-nightscout-bridge/errors"
	"github.com/burnedikt/diasend-nightscout-bridge/test"
)

var _ = Describe("Client", func() {
	var server *diasendTest.DiasendServer
	var cfg *diasend.Config
	var authenticator *diasend.PasswordAuthenticator
	var client *diasend.Client
	var now time.Time

	BeforeEach(func() {
		server = diasendTest.ServerStub()
		cfg = &diasend.Config{
			Username:     diasendTest.Username,
			Password:     diasendTest.Password,
			ClientId:     diasendTest.ClientId,
			ClientSecret: diasendTest.ClientSecret,
			ApiUrl:       server.URL,
			TokenMaxTTL:  time.Hour,
		}

		var err error
		authenticator, err = diasend.NewAuthenticator(cfg, diasend.NewHTTPClient())
		Expect(err).ToNot(HaveOccurred())

		now = time.Now()
		authenticator.SetClock(func() time.Time { return now })

		client = diasend.NewClient(cfg, authenticator, diasend.NewHTTPClient(), time.UTC, zap.NewNop().Sugar())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("FetchRecords", func() {
		It("requests the window in the source's timestamp format", func() {
			from := time.Date(2022, 8, 26, 18, 0, 1, 0, time.UTC)
			to := time.Date(2022, 8, 26, 19, 0, 0, 0, time.UTC)

			_, err := client.FetchRecords(context.Background(), from, to)
			Expect(err).ToNot(HaveOccurred())

			requests := server.DataRequests()
			Expect(requests).To(HaveLen(1))
			query := requests[0].URL.Query()
			Expect(query.Get("type")).To(Equal("cgm"))
			Expect(query.Get("unit")).To(Equal("mg_dl"))
			Expect(query.Get("date_from")).To(Equal("2022-08-26T18:00:01"))
			Expect(query.Get("date_to")).To(Equal("2022-08-26T19:00:00"))
			Expect(requests[0].Header.Get("User-Agent")).To(Equal(diasend.UserAgent))
		})

		It("returns the decoded records and skips undecodable ones", func() {
			body, err := test.LoadFixture("test/fixtures/patient_data.json")
			Expect(err).ToNot(HaveOccurred())
			server.SetPatientData(body)

			records, err := client.FetchRecords(context.Background(), now.Add(-time.Hour), now)
			Expect(err).ToNot(HaveOccurred())
			Expect(records).To(HaveLen(6))
		})

		It("reuses the access token across requests", func() {
			for i := 0; i < 3; i++ {
				_, err := client.FetchRecords(context.Background(), now.Add(-time.Hour), now)
				Expect(err).ToNot(HaveOccurred())
			}
			Expect(server.TokenRequests()).To(Equal(1))
		})

		It("requests a new token once the cached one is about to expire", func() {
			_, err := client.FetchRecords(context.Background(), now.Add(-time.Hour), now)
			Expect(err).ToNot(HaveOccurred())

			now = now.Add(time.Hour - 10*time.Second)
			_, err = client.FetchRecords(context.Background(), now.Add(-time.Hour), now)
			Expect(err).ToNot(HaveOccurred())
			Expect(server.TokenRequests()).To(Equal(2))
		})

		It("caches tokens without an expiry for an hour when no maximum TTL is configured", func() {
			server.SetTokenExpiresIn(0)
			cfg.TokenMaxTTL = 0
			authenticator, err := diasend.NewAuthenticator(cfg, diasend.NewHTTPClient())
			Expect(err).ToNot(HaveOccurred())
			authenticator.SetClock(func() time.Time { return now })
			client := diasend.NewClient(cfg, authenticator, diasend.NewHTTPClient(), time.UTC, zap.NewNop().Sugar())

			for i := 0; i < 3; i++ {
				_, err := client.FetchRecords(context.Background(), now.Add(-time.Hour), now)
				Expect(err).ToNot(HaveOccurred())
			}
			Expect(server.TokenRequests()).To(Equal(1))

			now = now.Add(time.Hour)
			_, err = client.FetchRecords(context.Background(), now.Add(-time.Hour), now)
			Expect(err).ToNot(HaveOccurred())
			Expect(server.TokenRequests()).To(Equal(2))
		})

		It("requests a new token after the api rejected the cached one", func() {
			server.SetPatientDataStatus(http.StatusUnauthorized)
			_, err := client.FetchRecords(context.Background(), now.Add(-time.Hour), now)
			Expect(err).To(MatchError(errors.Unauthorized))

			server.SetPatientData([]byte("[]"))
			_, err = client.FetchRecords(context.Background(), now.Add(-time.Hour), now)
			Expect(err).ToNot(HaveOccurred())
			Expect(server.TokenRequests()).To(Equal(2))
		})

		It("returns retryable errors for server failures", func() {
			server.SetPatientDataStatus(http.StatusBadGateway)
			_, err := client.FetchRecords(context.Background(), now.Add(-time.Hour), now)
			Expect(err).To(HaveOccurred())
			Expect(errors.IsRetryable(err)).To(BeTrue())
		})

		It("fails when the credentials are rejected", func() {
			cfg.Password = "wrong"
			authenticator, err := diasend.NewAuthenticator(cfg, diasend.NewHTTPClient())
			Expect(err).ToNot(HaveOccurred())
			client = diasend.NewClient(cfg, authenticator, diasend.NewHTTPClient(), time.UTC, zap.NewNop().Sugar())

			_, err = client.FetchRecords(context.Background(), now.Add(-time.Hour), now)
			Expect(err).To(HaveOccurred())
			Expect(server.DataRequests()).To(BeEmpty())
		})
	})
})
