package repository_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/errors"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout/repository"
	dbTest "github.com/burnedikt/diasend-nightscout-bridge/store/test"
)

var _ = Describe("Repository", func() {
	var repo *repository.Repository
	var database *mongo.Database
	var ctx context.Context
	now := time.Now().UTC().Truncate(time.Millisecond)

	BeforeEach(func() {
		ctx = context.Background()
		database = dbTest.GetTestDatabase()
		Expect(database.Collection("treatments").Drop(ctx)).To(Succeed())
		Expect(database.Collection("entries").Drop(ctx)).To(Succeed())
		Expect(database.Collection("profile").Drop(ctx)).To(Succeed())
		Expect(database.Collection("treatments_deletions").Drop(ctx)).To(Succeed())

		lifecycle := fxtest.NewLifecycle(GinkgoT())
		var err error
		repo, err = repository.NewRepository(database, zap.NewNop().Sugar(), lifecycle)
		Expect(err).ToNot(HaveOccurred())
		lifecycle.RequireStart()
	})

	Describe("treatments", func() {
		var created []nightscout.Treatment

		BeforeEach(func() {
			var err error
			created, err = repo.CreateTreatments(ctx, []nightscout.Treatment{
				nightscout.CarbCorrection{Base: nightscout.Base{CreatedAt: now.Add(-2 * time.Hour), App: "diasend"}, Carbs: 10},
				nightscout.TempBasal{Base: nightscout.Base{CreatedAt: now.Add(-time.Hour), App: "diasend"}, Absolute: 0.3, Duration: 360},
				nightscout.CarbCorrection{Base: nightscout.Base{CreatedAt: now, App: "careportal"}, Carbs: 20},
			})
			Expect(err).ToNot(HaveOccurred())
		})

		It("assigns ids to created treatments", func() {
			Expect(created).To(HaveLen(3))
			for _, t := range created {
				Expect(t.TreatmentBase().ID).To(HaveLen(24))
			}
		})

		It("stores created_at the way Nightscout does", func() {
			var doc bson.M
			Expect(database.Collection("treatments").FindOne(ctx, bson.M{"eventType": "Temp Basal"}).Decode(&doc)).To(Succeed())
			Expect(doc["created_at"]).To(Equal(nightscout.FormatTime(now.Add(-time.Hour))))
		})

		It("fetches treatments within a window, newest first", func() {
			treatments, err := repo.FetchTreatments(ctx, nightscout.Filter{From: now.Add(-90 * time.Minute), To: now})
			Expect(err).ToNot(HaveOccurred())
			Expect(treatments).To(HaveLen(2))
			Expect(treatments[0].EventType()).To(Equal(nightscout.EventTypeCarbCorrection))
			Expect(treatments[1]).To(Equal(created[1]))
		})

		It("filters by event type and app", func() {
			treatments, err := repo.FetchTreatments(ctx, nightscout.Filter{EventType: nightscout.EventTypeCarbCorrection, App: "diasend"})
			Expect(err).ToNot(HaveOccurred())
			Expect(treatments).To(Equal(created[:1]))
		})

		It("archives deleted treatments", func() {
			id := created[0].TreatmentBase().ID
			Expect(repo.DeleteTreatments(ctx, nightscout.Filter{ID: id})).To(Succeed())

			treatments, err := repo.FetchTreatments(ctx, nightscout.Filter{})
			Expect(err).ToNot(HaveOccurred())
			Expect(treatments).To(HaveLen(2))

			count, err := database.Collection("treatments_deletions").CountDocuments(ctx, bson.M{})
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})

		It("refuses to delete without a filter", func() {
			Expect(repo.DeleteTreatments(ctx, nightscout.Filter{})).To(MatchError(nightscout.ErrUnboundedDelete))
		})
	})

	Describe("entries", func() {
		It("creates and fetches glucose entries", func() {
			_, err := repo.CreateEntries(ctx, []nightscout.Entry{
				nightscout.SensorGlucose{EntryBase: nightscout.NewEntryBase(now.Add(-time.Hour), "CGM", "diasend"), SGV: 120},
				nightscout.ManualGlucose{EntryBase: nightscout.NewEntryBase(now, "Meter", "diasend"), MBG: 140},
			})
			Expect(err).ToNot(HaveOccurred())

			entries, err := repo.FetchEntries(ctx, nightscout.Filter{Count: 1})
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].(nightscout.ManualGlucose).MBG).To(Equal(140.0))
			Expect(entries[0].Time()).To(Equal(now))
		})
	})

	Describe("profile", func() {
		It("returns not found without a profile", func() {
			_, err := repo.FetchProfile(ctx)
			Expect(err).To(MatchError(errors.NotFound))
		})

		It("creates and replaces the profile", func() {
			profile := &nightscout.Profile{
				DefaultProfile: "Diasend",
				StartDate:      nightscout.FormatTime(now),
				Store: map[string]nightscout.ProfileConfig{
					"Diasend": {DIA: 4, Basal: []nightscout.TimeBasedValue{{Time: "00:00", Value: 0.5}}},
				},
			}
			created, err := repo.UpdateProfile(ctx, profile)
			Expect(err).ToNot(HaveOccurred())
			Expect(created.ID).ToNot(BeEmpty())

			created.Store["Diasend"] = nightscout.ProfileConfig{DIA: 5}
			_, err = repo.UpdateProfile(ctx, created)
			Expect(err).ToNot(HaveOccurred())

			fetched, err := repo.FetchProfile(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(fetched.ID).To(Equal(created.ID))
			Expect(fetched.Store["Diasend"].DIA).To(Equal(5.0))

			count, err := database.Collection("profile").CountDocuments(ctx, bson.M{})
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})
	})
})
