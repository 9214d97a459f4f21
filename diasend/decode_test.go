package diasend_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnedikt/diasend-nightscout-bridge/diasend"
	"github.com/burnedikt/diasend-nightscout-bridge/test"
)

var _ = Describe("DecodePatientData", func() {
	var loc *time.Location
	var records []diasend.Record
	var invalid []error

	BeforeEach(func() {
		var err error
		loc, err = time.LoadLocation("Europe/Berlin")
		Expect(err).ToNot(HaveOccurred())

		body, err := test.LoadFixture("test/fixtures/patient_data.json")
		Expect(err).ToNot(HaveOccurred())

		records, invalid, err = diasend.DecodePatientData(body, loc)
		Expect(err).ToNot(HaveOccurred())
	})

	It("decodes every known record of every device", func() {
		Expect(records).To(HaveLen(6))
	})

	It("reports records with an unknown type or an unreadable timestamp", func() {
		Expect(invalid).To(HaveLen(2))
		Expect(invalid[0]).To(MatchError(diasend.ErrUnknownKind))
		Expect(invalid[1].Error()).To(ContainSubstring("yesterday"))
	})

	It("interprets naive timestamps in the configured location", func() {
		Expect(records[0].Time()).To(Equal(time.Date(2022, 8, 26, 18, 3, 27, 0, loc)))
		Expect(records[0].Time().UTC().Hour()).To(Equal(16))
	})

	It("attaches the reporting device to each record", func() {
		Expect(records[0].DeviceData().Label()).To(Equal("Accu-Chek Insight (1111-22123)"))
		Expect(records[5].DeviceData().Label()).To(Equal("Accu-Chek Insight (3333-44556)"))
	})

	It("distinguishes sensor and manual glucose readings", func() {
		sensor, ok := records[0].(diasend.GlucoseRecord)
		Expect(ok).To(BeTrue())
		Expect(sensor.IsManual()).To(BeFalse())
		Expect(sensor.Value).To(Equal(125.0))

		manual, ok := records[1].(diasend.GlucoseRecord)
		Expect(ok).To(BeTrue())
		Expect(manual.IsManual()).To(BeTrue())
	})

	It("decodes meal and correction boli", func() {
		meal, ok := records[2].(diasend.BolusRecord)
		Expect(ok).To(BeTrue())
		Expect(meal.IsMealBolus()).To(BeTrue())
		Expect(meal.TotalValue).To(Equal(0.7))
		Expect(meal.SuggestionBasedOnCarb).To(BeTrue())
		Expect(meal.ProgrammedBGCorrection).To(BeNil())

		correction, ok := records[5].(diasend.BolusRecord)
		Expect(ok).To(BeTrue())
		Expect(correction.IsMealBolus()).To(BeFalse())
		Expect(correction.SuggestionOverridden).To(BeTrue())
		Expect(*correction.ProgrammedBGCorrection).To(Equal(1.5))
	})

	It("keeps the carb value as text", func() {
		carb, ok := records[3].(diasend.CarbRecord)
		Expect(ok).To(BeTrue())
		Expect(carb.Value).To(Equal("47"))
	})

	It("decodes basal rates", func() {
		basal, ok := records[4].(diasend.BasalRecord)
		Expect(ok).To(BeTrue())
		Expect(basal.Value).To(Equal(0.3))
		Expect(basal.Kind()).To(Equal(diasend.KindInsulinBasal))
	})

	It("fails when the response is not a device list", func() {
		_, _, err := diasend.DecodePatientData([]byte(`{"error": "nope"}`), loc)
		Expect(err).To(HaveOccurred())
	})

	It("keeps numeric carb values verbatim", func() {
		body := []byte(`[{"data":[{"type":"carb","created_at":"2022-08-26T18:21:00","value":12.5,"unit":"g","flags":[]}],"device":{"serial":"1","manufacturer":"m","model":"x"}}]`)
		records, invalid, err := diasend.DecodePatientData(body, loc)
		Expect(err).ToNot(HaveOccurred())
		Expect(invalid).To(BeEmpty())
		Expect(records).To(HaveLen(1))
		Expect(records[0].(diasend.CarbRecord).Value).To(Equal("12.5"))
	})
})
