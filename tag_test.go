// Copyright (c) 2024 Neomantra Corp

package zcrate_test

import (
	zcrate "github.com/vaultwire/zcrate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TypeTag", func() {
	Context("assigned codes", func() {
		It("should match the fixed wire codes", func() {
			Expect(byte(zcrate.Tag_Null)).To(Equal(byte(0x00)))
			Expect(byte(zcrate.Tag_Bool)).To(Equal(byte(0x01)))
			Expect(byte(zcrate.Tag_U8)).To(Equal(byte(0x02)))
			Expect(byte(zcrate.Tag_U16)).To(Equal(byte(0x03)))
			Expect(byte(zcrate.Tag_U32)).To(Equal(byte(0x04)))
			Expect(byte(zcrate.Tag_U64)).To(Equal(byte(0x05)))
			Expect(byte(zcrate.Tag_I8)).To(Equal(byte(0x06)))
			Expect(byte(zcrate.Tag_I16)).To(Equal(byte(0x07)))
			Expect(byte(zcrate.Tag_I32)).To(Equal(byte(0x08)))
			Expect(byte(zcrate.Tag_I64)).To(Equal(byte(0x09)))
			Expect(byte(zcrate.Tag_F32)).To(Equal(byte(0x0A)))
			Expect(byte(zcrate.Tag_F64)).To(Equal(byte(0x0B)))
			Expect(byte(zcrate.Tag_String)).To(Equal(byte(0x0C)))
			Expect(byte(zcrate.Tag_Array)).To(Equal(byte(0x0D)))
			Expect(byte(zcrate.Tag_Struct)).To(Equal(byte(0x0E)))
		})
	})

	Context("IsValid", func() {
		It("should accept assigned codes and reject anything past Struct", func() {
			Expect(zcrate.Tag_Struct.IsValid()).To(BeTrue())
			Expect(zcrate.TypeTag(0x0F).IsValid()).To(BeFalse())
			Expect(zcrate.TypeTag(0xFF).IsValid()).To(BeFalse())
		})
	})

	Context("widensTo", func() {
		It("should allow widening within the same signedness and width ladder", func() {
			Expect(zcrate.Tag_U8.WidensTo(zcrate.Tag_U16)).To(BeTrue())
			Expect(zcrate.Tag_U8.WidensTo(zcrate.Tag_U64)).To(BeTrue())
			Expect(zcrate.Tag_I16.WidensTo(zcrate.Tag_I32)).To(BeTrue())
			Expect(zcrate.Tag_F32.WidensTo(zcrate.Tag_F64)).To(BeTrue())
			Expect(zcrate.Tag_U32.WidensTo(zcrate.Tag_U32)).To(BeTrue())
		})

		It("should reject narrowing", func() {
			Expect(zcrate.Tag_U64.WidensTo(zcrate.Tag_U8)).To(BeFalse())
			Expect(zcrate.Tag_F64.WidensTo(zcrate.Tag_F32)).To(BeFalse())
		})

		It("should reject cross-signedness and cross-kind coercion", func() {
			Expect(zcrate.Tag_U32.WidensTo(zcrate.Tag_I32)).To(BeFalse())
			Expect(zcrate.Tag_I32.WidensTo(zcrate.Tag_F64)).To(BeFalse())
			Expect(zcrate.Tag_U8.WidensTo(zcrate.Tag_String)).To(BeFalse())
			Expect(zcrate.Tag_String.WidensTo(zcrate.Tag_U64)).To(BeFalse())
		})
	})
})
