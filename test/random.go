package test

import (
	"math/rand"
	"time"

	"github.com/jaswdr/faker"
	"github.com/onsi/ginkgo/v2"
)

var (
	Faker  = faker.NewWithSeed(Source)
	Rand   = rand.New(Source)
	Source = rand.NewSource(ginkgo.GinkgoRandomSeed())
)

// RandomTime returns a second-precision time within the last week, in loc.
func RandomTime(loc *time.Location) time.Time {
	offset := time.Duration(Rand.Int63n(int64(7 * 24 * time.Hour)))
	return time.Now().Add(-offset).In(loc).Truncate(time.Second)
}

// RandomSerial returns a pump-like serial number.
func RandomSerial() string {
	return Faker.Numerify("##########")
}

// RandomUnits returns an insulin amount in 0.05U steps up to max.
func RandomUnits(max float64) float64 {
	steps := int(max / 0.05)
	return float64(Rand.Intn(steps)+1) * 0.05
}
