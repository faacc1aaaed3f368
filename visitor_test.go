// Copyright (c) 2024 Neomantra Corp

package zcrate_test

import (
	"bytes"

	zcrate "github.com/vaultwire/zcrate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type categoryVisitor struct {
	zcrate.NullRecordVisitor
	lastCategory string
}

func (v *categoryVisitor) OnBool(header zcrate.HeaderV2, body []byte) error {
	v.lastCategory = "bool"
	return nil
}
func (v *categoryVisitor) OnUint(header zcrate.HeaderV2, body []byte) error {
	v.lastCategory = "uint"
	return nil
}
func (v *categoryVisitor) OnInt(header zcrate.HeaderV2, body []byte) error {
	v.lastCategory = "int"
	return nil
}
func (v *categoryVisitor) OnFloat(header zcrate.HeaderV2, body []byte) error {
	v.lastCategory = "float"
	return nil
}
func (v *categoryVisitor) OnArray(header zcrate.HeaderV2, body []byte) error {
	v.lastCategory = "array"
	return nil
}
func (v *categoryVisitor) OnStruct(header zcrate.HeaderV2, body []byte) error {
	v.lastCategory = "struct"
	return nil
}

var _ = Describe("RecordVisitor dispatch", func() {
	writeOne := func(value interface{}, schema zcrate.Schema) []byte {
		buf := make([]byte, 128)
		n, err := zcrate.Write(value, buf, schema)
		Expect(err).To(BeNil())
		return buf[:n]
	}

	scanOne := func(record []byte, visitor zcrate.RecordVisitor) {
		scanner := zcrate.NewScanner(bytes.NewReader(record))
		Expect(scanner.Next()).To(BeTrue())
		Expect(scanner.Visit(visitor)).To(BeNil())
	}

	DescribeTable("routes each TypeTag category to its callback",
		func(value interface{}, expected string) {
			s := zcrate.NewSchema("dispatch", 1)
			v := &categoryVisitor{}
			scanOne(writeOne(value, s), v)
			Expect(v.lastCategory).To(Equal(expected))
		},
		Entry("bool", func() *bool { b := true; return &b }(), "bool"),
		Entry("u32", func() *uint32 { u := uint32(7); return &u }(), "uint"),
		Entry("i16", func() *int16 { i := int16(-3); return &i }(), "int"),
		Entry("f64", func() *float64 { f := 1.5; return &f }(), "float"),
		Entry("array", func() *[]int32 { a := []int32{1, 2}; return &a }(), "array"),
	)

	It("routes a struct to OnStruct", func() {
		type Rec struct {
			A int32 `zcrate:"a"`
		}
		s := zcrate.NewSchema("dispatch-struct", 1)
		v := &categoryVisitor{}
		scanOne(writeOne(&Rec{A: 1}, s), v)
		Expect(v.lastCategory).To(Equal("struct"))
	})

	It("routes a string to OnString", func() {
		sv := &stringCatchVisitor{}
		s := zcrate.NewSchema("dispatch-string", 1)
		str := "hello"
		scanOne(writeOne(&str, s), sv)
		Expect(sv.called).To(BeTrue())
	})

	It("NullRecordVisitor methods are all no-ops that return nil", func() {
		var n zcrate.NullRecordVisitor
		var h zcrate.HeaderV2
		Expect(n.OnBool(h, nil)).To(BeNil())
		Expect(n.OnUint(h, nil)).To(BeNil())
		Expect(n.OnInt(h, nil)).To(BeNil())
		Expect(n.OnFloat(h, nil)).To(BeNil())
		Expect(n.OnString(h, nil)).To(BeNil())
		Expect(n.OnArray(h, nil)).To(BeNil())
		Expect(n.OnStruct(h, nil)).To(BeNil())
		Expect(n.OnStreamEnd()).To(BeNil())
	})
})

type stringCatchVisitor struct {
	zcrate.NullRecordVisitor
	called bool
}

func (v *stringCatchVisitor) OnString(header zcrate.HeaderV2, body []byte) error {
	v.called = true
	return nil
}
