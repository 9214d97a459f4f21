package nightscout_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
)

var _ = Describe("Codec", func() {
	createdAt := time.Date(2022, 8, 26, 16, 3, 27, 0, time.UTC)
	base := nightscout.Base{
		CreatedAt: createdAt,
		Device:    "Accu-Chek Insight (1111-22123)",
		App:       "diasend",
	}

	Describe("Document", func() {
		It("flattens the shared fields and adds the event type", func() {
			doc := nightscout.Document(nightscout.ResolvedMealBolus{
				Base:           base,
				Insulin:        0.7,
				Carbs:          47,
				CarbsReference: "2022-08-26T16:04:00.000Z 47g",
			})

			Expect(doc).To(Equal(map[string]interface{}{
				"eventType":      "Meal Bolus",
				"created_at":     "2022-08-26T16:03:27.000Z",
				"device":         "Accu-Chek Insight (1111-22123)",
				"app":            "diasend",
				"insulin":        0.7,
				"carbs":          47.0,
				"carbsReference": "2022-08-26T16:04:00.000Z 47g",
			}))
		})

		It("omits carbs for unresolved meal boli", func() {
			doc := nightscout.Document(nightscout.MealBolus{Base: base, Insulin: 0.7})
			Expect(doc).ToNot(HaveKey("carbs"))
			Expect(doc).ToNot(HaveKey("_id"))
			Expect(doc).ToNot(HaveKey("notes"))
		})

		It("keeps the destination id of persisted treatments", func() {
			persisted := base
			persisted.ID = "630a3f3c6b5b1a0001a1b2c3"
			doc := nightscout.Document(nightscout.CarbCorrection{Base: persisted, Carbs: 10})
			Expect(doc).To(HaveKeyWithValue("_id", "630a3f3c6b5b1a0001a1b2c3"))
		})

		It("writes the type of entries", func() {
			doc := nightscout.EntryDocument(nightscout.ManualGlucose{
				EntryBase: nightscout.NewEntryBase(createdAt, "Meter", "diasend"),
				MBG:       140,
			})
			Expect(doc).To(Equal(map[string]interface{}{
				"type":       "mbg",
				"mbg":        140.0,
				"date":       createdAt.UnixMilli(),
				"dateString": "2022-08-26T16:03:27.000Z",
				"device":     "Meter",
				"app":        "diasend",
			}))
		})
	})

	Describe("DecodeTreatment", func() {
		decode := func(body string) nightscout.Treatment {
			var doc map[string]interface{}
			Expect(json.Unmarshal([]byte(body), &doc)).To(Succeed())
			t, err := nightscout.DecodeTreatment(doc)
			Expect(err).ToNot(HaveOccurred())
			return t
		}

		It("decodes a resolved meal bolus with destination-only fields", func() {
			t := decode(`{"_id":"630a3f3c6b5b1a0001a1b2c3","eventType":"Meal Bolus","created_at":"2022-08-26T16:03:27.000Z","insulin":0.7,"carbs":47,"carbsReference":"ref","app":"diasend","utcOffset":0,"enteredBy":"","mills":1661529807000}`)
			Expect(t).To(Equal(nightscout.ResolvedMealBolus{
				Base: nightscout.Base{
					ID:        "630a3f3c6b5b1a0001a1b2c3",
					CreatedAt: createdAt,
					App:       "diasend",
				},
				Insulin:        0.7,
				Carbs:          47,
				CarbsReference: "ref",
			}))
		})

		It("decodes a meal bolus without carbs as unresolved", func() {
			t := decode(`{"eventType":"Meal Bolus","created_at":"2022-08-26T16:03:27.000Z","insulin":0.7,"carbs":null}`)
			Expect(t).To(BeAssignableToTypeOf(nightscout.MealBolus{}))
		})

		It("decodes temp basals", func() {
			t := decode(`{"eventType":"Temp Basal","created_at":"2022-08-26T18:03:27+02:00","absolute":0.3,"duration":360}`)
			basal, ok := t.(nightscout.TempBasal)
			Expect(ok).To(BeTrue())
			Expect(basal.Absolute).To(Equal(0.3))
			Expect(basal.Duration).To(Equal(360))
			Expect(basal.Time().Equal(createdAt)).To(BeTrue())
		})

		It("decodes unknown event types as other treatments", func() {
			t := decode(`{"eventType":"BG Check","created_at":"2022-08-26T16:03:27.000Z","glucose":120}`)
			Expect(t.EventType()).To(Equal(nightscout.EventType("BG Check")))
			Expect(t).To(BeAssignableToTypeOf(nightscout.OtherTreatment{}))
		})

		It("is the inverse of Document", func() {
			original := nightscout.TempBasal{Base: base, Absolute: 0.45, Duration: 360}
			doc := nightscout.Document(original)
			data, err := json.Marshal(doc)
			Expect(err).ToNot(HaveOccurred())
			Expect(decode(string(data))).To(Equal(original))
		})
	})

	Describe("DecodeEntry", func() {
		It("decodes sensor glucose values", func() {
			e, err := nightscout.DecodeEntry(map[string]interface{}{
				"type":       "sgv",
				"sgv":        125.0,
				"date":       float64(createdAt.UnixMilli()),
				"dateString": "2022-08-26T16:03:27.000Z",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(e.EntryType()).To(Equal(nightscout.EntryTypeSensorGlucose))
			Expect(e.Time()).To(Equal(createdAt))
		})

		It("rejects calibrations", func() {
			_, err := nightscout.DecodeEntry(map[string]interface{}{"type": "cal"})
			Expect(err).To(MatchError(nightscout.ErrUnsupportedEntryType))
		})
	})

	Describe("Reference", func() {
		It("identifies carb corrections by time and amount", func() {
			Expect(nightscout.Reference(nightscout.CarbCorrection{Base: base, Carbs: 12.5})).To(Equal("2022-08-26T16:03:27.000Z 12.5g"))
		})

		It("tells carbs of different devices apart in carbs references", func() {
			carb := nightscout.CarbCorrection{Base: base, Carbs: 12.5}
			Expect(nightscout.CarbsReference(carb)).To(Equal("2022-08-26T16:03:27.000Z 12.5g Accu-Chek Insight (1111-22123)"))

			carb.Device = ""
			Expect(nightscout.CarbsReference(carb)).To(Equal("2022-08-26T16:03:27.000Z 12.5g"))
		})

		It("marks unknown carbs of meal boli", func() {
			Expect(nightscout.Reference(nightscout.MealBolus{Base: base, Insulin: 1})).To(Equal("2022-08-26T16:03:27.000Z ?g 1U"))
		})

		It("includes rate and duration of temp basals", func() {
			Expect(nightscout.Reference(nightscout.TempBasal{Base: base, Absolute: 0.3, Duration: 360})).To(Equal("2022-08-26T16:03:27.000Z 0.3U 360min"))
		})

		It("does not depend on the destination id", func() {
			persisted := base
			persisted.ID = "630a3f3c6b5b1a0001a1b2c3"
			Expect(nightscout.Reference(nightscout.CorrectionBolus{Base: persisted, Insulin: 0.2})).
				To(Equal(nightscout.Reference(nightscout.CorrectionBolus{Base: base, Insulin: 0.2})))
		})
	})

	Describe("NewTimeBasedValue", func() {
		DescribeTable("parses times of day",
			func(clock string, expected nightscout.TimeBasedValue) {
				v, err := nightscout.NewTimeBasedValue(clock, 0.5)
				Expect(err).ToNot(HaveOccurred())
				Expect(v).To(Equal(expected))
			},
			Entry("midnight", "00:00", nightscout.TimeBasedValue{Time: "00:00", TimeAsSeconds: 0, Value: 0.5}),
			Entry("unpadded hours", "6:30", nightscout.TimeBasedValue{Time: "06:30", TimeAsSeconds: 23400, Value: 0.5}),
			Entry("with seconds", "22:30:15", nightscout.TimeBasedValue{Time: "22:30", TimeAsSeconds: 81000, Value: 0.5}),
		)

		It("rejects malformed times", func() {
			_, err := nightscout.NewTimeBasedValue("noon", 0.5)
			Expect(err).To(HaveOccurred())
		})
	})
})
