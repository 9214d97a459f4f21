package reconcile_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
	"github.com/burnedikt/diasend-nightscout-bridge/reconcile"
	"github.com/burnedikt/diasend-nightscout-bridge/test"
)

// persisted returns the treatment as it is read back from the destination.
func persisted(t nightscout.Treatment) nightscout.Treatment {
	doc := nightscout.Document(t)
	doc["_id"] = test.Faker.Hash().MD5()[:24]
	doc["utcOffset"] = 120.0
	doc["enteredBy"] = "diasend"
	doc["created_at"] = t.Time().UTC().Format(time.RFC3339)
	decoded, err := nightscout.DecodeTreatment(doc)
	Expect(err).ToNot(HaveOccurred())
	return decoded
}

var _ = Describe("Deduplicator", func() {
	var at time.Time
	var base nightscout.Base
	var treatments []nightscout.Treatment

	BeforeEach(func() {
		at = time.Date(2022, 8, 26, 16, 3, 27, 0, time.UTC)
		base = nightscout.Base{CreatedAt: at, Device: device, App: "diasend"}
		treatments = []nightscout.Treatment{
			nightscout.MealBolus{Base: base, Insulin: 0.7},
			nightscout.MealBolus{Base: base, Insulin: 0.7}.Resolve(47, "2022-08-26T16:04:00.000Z 47g"),
			nightscout.CorrectionBolus{Base: base, Insulin: 0.2},
			nightscout.CarbCorrection{Base: base, Carbs: 15},
			nightscout.TempBasal{Base: base, Absolute: 0.85, Duration: 360},
		}
	})

	Describe("Equal", func() {
		It("never matches treatments of different event types", func() {
			equal, err := reconcile.Equal(
				nightscout.CorrectionBolus{Base: base, Insulin: 1},
				nightscout.MealBolus{Base: base, Insulin: 1},
			)
			Expect(err).ToNot(HaveOccurred())
			Expect(equal).To(BeFalse())
		})

		It("ignores the destination id and fields the bridge does not write", func() {
			for _, t := range treatments {
				equal, err := reconcile.Equal(t, persisted(t))
				Expect(err).ToNot(HaveOccurred())
				Expect(equal).To(BeTrue(), nightscout.Reference(t))
			}
		})

		It("does not match a meal bolus with carbs and one without", func() {
			equal, err := reconcile.Equal(treatments[0], treatments[1])
			Expect(err).ToNot(HaveOccurred())
			Expect(equal).To(BeFalse())
		})

		It("ignores the carbs reference", func() {
			a := nightscout.MealBolus{Base: base, Insulin: 0.7}.Resolve(47, "a")
			b := nightscout.MealBolus{Base: base, Insulin: 0.7}.Resolve(47, "b")
			equal, err := reconcile.Equal(a, b)
			Expect(err).ToNot(HaveOccurred())
			Expect(equal).To(BeTrue())
		})

		DescribeTable("compares the fields identifying the treatment",
			func(a, b nightscout.Treatment) {
				equal, err := reconcile.Equal(a, b)
				Expect(err).ToNot(HaveOccurred())
				Expect(equal).To(BeFalse())
			},
			Entry("insulin", nightscout.CorrectionBolus{Insulin: 1}, nightscout.CorrectionBolus{Insulin: 1.1}),
			Entry("carbs", nightscout.CarbCorrection{Carbs: 10}, nightscout.CarbCorrection{Carbs: 11}),
			Entry("rate", nightscout.TempBasal{Absolute: 1, Duration: 360}, nightscout.TempBasal{Absolute: 2, Duration: 360}),
			Entry("duration", nightscout.TempBasal{Absolute: 1, Duration: 360}, nightscout.TempBasal{Absolute: 1, Duration: 30}),
			Entry("notes",
				nightscout.MealBolus{Base: nightscout.Base{Notes: "Correction: 0.4"}, Insulin: 1},
				nightscout.MealBolus{Insulin: 1},
			),
			Entry("app",
				nightscout.CarbCorrection{Base: nightscout.Base{App: "diasend"}, Carbs: 10},
				nightscout.CarbCorrection{Base: nightscout.Base{App: "xdrip"}, Carbs: 10},
			),
			Entry("device",
				nightscout.CarbCorrection{Base: nightscout.Base{Device: "a"}, Carbs: 10},
				nightscout.CarbCorrection{Base: nightscout.Base{Device: "b"}, Carbs: 10},
			),
			Entry("time",
				nightscout.CarbCorrection{Base: nightscout.Base{CreatedAt: time.Unix(0, 0)}, Carbs: 10},
				nightscout.CarbCorrection{Base: nightscout.Base{CreatedAt: time.Unix(1, 0)}, Carbs: 10},
			),
		)

		It("fails for event types it does not know how to compare", func() {
			other := nightscout.OtherTreatment{Base: base, Event: "BG Check"}
			_, err := reconcile.Equal(other, other)
			Expect(err).To(MatchError(reconcile.ErrAmbiguousComparison))
		})
	})

	Describe("Deduplicate", func() {
		It("removes every candidate when deduplicated against itself", func() {
			survivors, err := reconcile.Deduplicate(treatments, treatments)
			Expect(err).ToNot(HaveOccurred())
			Expect(survivors).To(BeEmpty())
		})

		It("removes a candidate persisted with a different id and extra fields", func() {
			existing := []nightscout.Treatment{persisted(treatments[2])}
			survivors, err := reconcile.Deduplicate([]nightscout.Treatment{treatments[2]}, existing)
			Expect(err).ToNot(HaveOccurred())
			Expect(survivors).To(BeEmpty())
		})

		It("keeps candidates that are not persisted yet", func() {
			existing := []nightscout.Treatment{persisted(treatments[0]), persisted(treatments[3])}
			survivors, err := reconcile.Deduplicate(treatments, existing)
			Expect(err).ToNot(HaveOccurred())
			Expect(survivors).To(Equal([]nightscout.Treatment{treatments[1], treatments[2], treatments[4]}))
		})

		It("is idempotent", func() {
			existing := []nightscout.Treatment{
				persisted(treatments[1]),
				persisted(nightscout.CarbCorrection{Base: base, Carbs: 99}),
				nightscout.OtherTreatment{Base: base, Event: "Note"},
			}
			once, err := reconcile.Deduplicate(treatments, existing)
			Expect(err).ToNot(HaveOccurred())
			twice, err := reconcile.Deduplicate(once, existing)
			Expect(err).ToNot(HaveOccurred())
			Expect(twice).To(Equal(once))
			Expect(once).To(HaveLen(4))
		})

		It("collapses duplicate candidates", func() {
			candidates := []nightscout.Treatment{treatments[3], treatments[3], treatments[4]}
			survivors, err := reconcile.Deduplicate(candidates, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(survivors).To(Equal([]nightscout.Treatment{treatments[3], treatments[4]}))
		})

		It("ignores existing treatments of foreign event types", func() {
			existing := []nightscout.Treatment{nightscout.OtherTreatment{Base: base, Event: "Site Change"}}
			survivors, err := reconcile.Deduplicate(treatments, existing)
			Expect(err).ToNot(HaveOccurred())
			Expect(survivors).To(Equal(treatments))
		})

		It("fails for candidates it cannot compare", func() {
			other := nightscout.OtherTreatment{Base: base, Event: "Note"}
			_, err := reconcile.Deduplicate([]nightscout.Treatment{other}, []nightscout.Treatment{other})
			Expect(err).To(MatchError(reconcile.ErrAmbiguousComparison))
		})
	})

	Describe("DeduplicateEntries", func() {
		It("drops entries of the same type and date", func() {
			sgv := nightscout.SensorGlucose{EntryBase: nightscout.NewEntryBase(at, device, "diasend"), SGV: 120}
			mbg := nightscout.ManualGlucose{EntryBase: nightscout.NewEntryBase(at, device, "diasend"), MBG: 118}
			later := nightscout.SensorGlucose{EntryBase: nightscout.NewEntryBase(at.Add(5*time.Minute), device, "diasend"), SGV: 125}

			existing := sgv
			existing.ID = "630a3f3c6b5b1a0001a1b2c3"

			survivors := reconcile.DeduplicateEntries([]nightscout.Entry{sgv, mbg, later, later}, []nightscout.Entry{existing})
			Expect(survivors).To(Equal([]nightscout.Entry{mbg, later}))
		})
	})
})
