// Copyright (c) 2024 Neomantra Corp

package zcrate_test

import (
	"math"

	zcrate "github.com/vaultwire/zcrate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("float encoding", func() {
	schema := zcrate.NewSchema("scalar", 1)

	Context("round trip", func() {
		It("should round-trip float32 bit-exactly", func() {
			value := float32(3.14159)
			buf := make([]byte, 64)
			n, err := zcrate.Write(&value, buf, schema)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[float32](buf[:n], schema)
			Expect(err).To(BeNil())
			Expect(math.Float32bits(got)).To(Equal(math.Float32bits(value)))
		})

		It("should round-trip float64 bit-exactly, including special values", func() {
			for _, value := range []float64{0, math.Copysign(0, -1), 1.5, -1.5, math.Inf(1), math.Inf(-1)} {
				buf := make([]byte, 64)
				n, err := zcrate.Write(&value, buf, schema)
				Expect(err).To(BeNil())

				got, err := zcrate.Read[float64](buf[:n], schema)
				Expect(err).To(BeNil())
				Expect(math.Float64bits(got)).To(Equal(math.Float64bits(value)))
			}
		})

		It("should round-trip NaN bit patterns exactly", func() {
			value := math.NaN()
			buf := make([]byte, 64)
			n, err := zcrate.Write(&value, buf, schema)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[float64](buf[:n], schema)
			Expect(err).To(BeNil())
			Expect(math.Float64bits(got)).To(Equal(math.Float64bits(value)))
		})
	})

	Context("widening", func() {
		It("should widen an on-wire F32 field into an F64 struct field", func() {
			type Narrow struct {
				V float32 `zcrate:"v"`
			}
			type Wide struct {
				V float64 `zcrate:"v"`
			}
			s := zcrate.NewSchema("widefloat", 1).WithField(zcrate.NewFieldDefinition("v", zcrate.Tag_F32))

			buf := make([]byte, 64)
			n, err := zcrate.Write(&Narrow{V: 2.5}, buf, s)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[Wide](buf[:n], s)
			Expect(err).To(BeNil())
			Expect(got.V).To(Equal(2.5))
		})
	})
})
