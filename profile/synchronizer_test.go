package profile_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/config"
	diasendTest "github.com/burnedikt/diasend-nightscout-bridge/diasend/test"
	"github.com/burnedikt/diasend-nightscout-bridge/errors"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
	nightscoutTest "github.com/burnedikt/diasend-nightscout-bridge/nightscout/test"
	"github.com/burnedikt/diasend-nightscout-bridge/profile"
	"github.com/burnedikt/diasend-nightscout-bridge/test"
)

var _ = Describe("Synchronizer", func() {
	var ctrl *gomock.Controller
	var source *diasendTest.MockPumpSettingsSource
	var destination *nightscoutTest.MockClient
	var nightscoutConfig *nightscout.Config
	var now time.Time
	var ctx context.Context

	newSynchronizer := func() *profile.Synchronizer {
		s := profile.NewSynchronizer(&config.Config{Timezone: "Europe/Berlin"}, nightscoutConfig, source, destination, zap.NewNop().Sugar())
		s.SetClock(func() time.Time { return now })
		return s
	}

	BeforeEach(func() {
		ctx = context.Background()
		ctrl = gomock.NewController(GinkgoT())
		source = diasendTest.NewMockPumpSettingsSource(ctrl)
		destination = nightscoutTest.NewMockClient(ctrl)
		nightscoutConfig = &nightscout.Config{ProfileName: "Diasend"}
		now = time.Date(2022, 8, 26, 15, 0, 0, 0, time.UTC)
	})

	It("updates the basal schedule of the configured profile", func() {
		existing := &nightscout.Profile{
			ID:             "630a3f3c6b5b1a0001a1b2c3",
			DefaultProfile: "Diasend",
			Store: map[string]nightscout.ProfileConfig{
				"Diasend": {Basal: []nightscout.TimeBasedValue{{Time: "00:00", Value: 1}}},
			},
		}
		source.EXPECT().FetchPumpSettings(gomock.Any()).Return(pumpSettings(), nil)
		destination.EXPECT().FetchProfile(gomock.Any()).Return(existing, nil)
		var updated *nightscout.Profile
		destination.EXPECT().UpdateProfile(gomock.Any(), test.Capture(&updated)).Return(nil, nil)

		Expect(newSynchronizer().Sync(ctx)).To(Succeed())
		Expect(updated.ID).To(Equal(existing.ID))
		Expect(updated.Store["Diasend"].Basal).To(HaveLen(3))
	})

	It("does not update a profile that is up to date", func() {
		upToDate, err := profile.Apply(&nightscout.Profile{DefaultProfile: "Diasend"}, pumpSettings(), "Diasend", "Europe/Berlin")
		Expect(err).ToNot(HaveOccurred())

		source.EXPECT().FetchPumpSettings(gomock.Any()).Return(pumpSettings(), nil)
		destination.EXPECT().FetchProfile(gomock.Any()).Return(upToDate, nil)
		destination.EXPECT().UpdateProfile(gomock.Any(), gomock.Any()).Times(0)

		Expect(newSynchronizer().Sync(ctx)).To(Succeed())
	})

	It("creates the profile when Nightscout has none", func() {
		source.EXPECT().FetchPumpSettings(gomock.Any()).Return(pumpSettings(), nil)
		destination.EXPECT().FetchProfile(gomock.Any()).Return(nil, fmt.Errorf("unable to fetch profile: %w", errors.NotFound))
		var created *nightscout.Profile
		destination.EXPECT().UpdateProfile(gomock.Any(), test.Capture(&created)).Return(nil, nil)

		Expect(newSynchronizer().Sync(ctx)).To(Succeed())
		Expect(created.DefaultProfile).To(Equal("Diasend"))
		Expect(created.Mills).To(Equal(now.UnixMilli()))
		Expect(created.StartDate).To(Equal("2022-08-26T15:00:00.000Z"))
		Expect(created.Store).To(HaveKey("Diasend"))
		Expect(created.Store["Diasend"].Sens).To(HaveLen(1))
	})

	It("does nothing without a profile name", func() {
		nightscoutConfig.ProfileName = ""
		synchronizer := newSynchronizer()
		Expect(synchronizer.Enabled()).To(BeFalse())
		Expect(synchronizer.Sync(ctx)).To(Succeed())
	})

	It("fails when the pump settings are unavailable", func() {
		source.EXPECT().FetchPumpSettings(gomock.Any()).Return(nil, errors.Unauthorized)
		Expect(newSynchronizer().Sync(ctx)).To(MatchError(errors.Unauthorized))
	})

	It("fails when the profile cannot be fetched", func() {
		source.EXPECT().FetchPumpSettings(gomock.Any()).Return(pumpSettings(), nil)
		destination.EXPECT().FetchProfile(gomock.Any()).Return(nil, errors.ServiceUnavailable)
		Expect(newSynchronizer().Sync(ctx)).To(MatchError(errors.ServiceUnavailable))
	})
})
