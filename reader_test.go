// Copyright (c) 2024 Neomantra Corp

package zcrate_test

import (
	zcrate "github.com/vaultwire/zcrate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Read", func() {
	Context("forward compatibility: skip-unknown", func() {
		It("should skip a field the target struct doesn't declare", func() {
			type Wide struct {
				A int32 `zcrate:"a"`
				B int32 `zcrate:"b"`
			}
			type Narrow struct {
				A int32 `zcrate:"a"`
			}
			s := zcrate.NewSchema("evolving", 1)
			buf := make([]byte, 128)
			n, err := zcrate.Write(&Wide{A: 1, B: 2}, buf, s)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[Narrow](buf[:n], s)
			Expect(err).To(BeNil())
			Expect(got.A).To(Equal(int32(1)))
		})

		It("should skip an unknown array field", func() {
			type Wide struct {
				A     int32   `zcrate:"a"`
				Extra []int32 `zcrate:"extra"`
			}
			type Narrow struct {
				A int32 `zcrate:"a"`
			}
			s := zcrate.NewSchema("evolving", 1)
			buf := make([]byte, 256)
			n, err := zcrate.Write(&Wide{A: 1, Extra: []int32{1, 2, 3}}, buf, s)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[Narrow](buf[:n], s)
			Expect(err).To(BeNil())
			Expect(got.A).To(Equal(int32(1)))
		})

		It("should skip an unknown nested struct field", func() {
			type Inner struct {
				X int32 `zcrate:"x"`
			}
			type Wide struct {
				A     int32 `zcrate:"a"`
				Inner Inner `zcrate:"inner"`
			}
			type Narrow struct {
				A int32 `zcrate:"a"`
			}
			s := zcrate.NewSchema("evolving", 1)
			buf := make([]byte, 256)
			n, err := zcrate.Write(&Wide{A: 1, Inner: Inner{X: 9}}, buf, s)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[Narrow](buf[:n], s)
			Expect(err).To(BeNil())
			Expect(got.A).To(Equal(int32(1)))
		})
	})

	Context("backward compatibility: default materialization", func() {
		It("should materialize a schema default for a field missing from the wire", func() {
			type Old struct {
				A int32 `zcrate:"a"`
			}
			type New struct {
				A int32 `zcrate:"a"`
				B int32 `zcrate:"b"`
			}
			s := zcrate.NewSchema("evolving", 2).
				WithField(zcrate.NewFieldDefinition("a", zcrate.Tag_I32)).
				WithField(zcrate.NewFieldDefinition("b", zcrate.Tag_I32).WithDefault("42"))

			buf := make([]byte, 128)
			n, err := zcrate.Write(&Old{A: 1}, buf, s)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[New](buf[:n], s)
			Expect(err).To(BeNil())
			Expect(got.A).To(Equal(int32(1)))
			Expect(got.B).To(Equal(int32(42)))
		})

		It("should fall back to the zero value when the default literal doesn't parse", func() {
			type Old struct {
				A int32 `zcrate:"a"`
			}
			type New struct {
				A int32 `zcrate:"a"`
				B int32 `zcrate:"b"`
			}
			s := zcrate.NewSchema("evolving", 2).
				WithField(zcrate.NewFieldDefinition("a", zcrate.Tag_I32)).
				WithField(zcrate.NewFieldDefinition("b", zcrate.Tag_I32).WithDefault("not-a-number"))

			buf := make([]byte, 128)
			n, err := zcrate.Write(&Old{A: 1}, buf, s)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[New](buf[:n], s)
			Expect(err).To(BeNil())
			Expect(got.B).To(Equal(int32(0)))
		})

		It("should return RequiredFieldMissing for a required field absent from the wire with no default", func() {
			type Old struct {
				A int32 `zcrate:"a"`
			}
			type New struct {
				A int32 `zcrate:"a"`
				B int32 `zcrate:"b"`
			}
			s := zcrate.NewSchema("evolving", 2).
				WithField(zcrate.NewFieldDefinition("a", zcrate.Tag_I32)).
				WithField(zcrate.NewFieldDefinition("b", zcrate.Tag_I32)) // required, no default

			buf := make([]byte, 128)
			n, err := zcrate.Write(&Old{A: 1}, buf, s)
			Expect(err).To(BeNil())

			_, err = zcrate.Read[New](buf[:n], s)
			Expect(err).ToNot(BeNil())
			Expect(err).To(MatchError(zcrate.ErrRequiredFieldMissing))
		})
	})

	Context("width coercion", func() {
		It("should widen a narrower on-wire field into a wider target", func() {
			type Narrow struct {
				V uint8 `zcrate:"v"`
			}
			type Wide struct {
				V uint64 `zcrate:"v"`
			}
			s := zcrate.NewSchema("coerce", 1).WithField(zcrate.NewFieldDefinition("v", zcrate.Tag_U8))
			buf := make([]byte, 128)
			n, err := zcrate.Write(&Narrow{V: 200}, buf, s)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[Wide](buf[:n], s)
			Expect(err).To(BeNil())
			Expect(got.V).To(Equal(uint64(200)))
		})

		It("should sign-extend a narrower signed field correctly when widening", func() {
			type Narrow struct {
				V int8 `zcrate:"v"`
			}
			type Wide struct {
				V int32 `zcrate:"v"`
			}
			s := zcrate.NewSchema("coerce", 1).WithField(zcrate.NewFieldDefinition("v", zcrate.Tag_I8))
			buf := make([]byte, 128)
			n, err := zcrate.Write(&Narrow{V: -1}, buf, s)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[Wide](buf[:n], s)
			Expect(err).To(BeNil())
			Expect(got.V).To(Equal(int32(-1)))
		})

		It("should reject narrowing a wider on-wire field into a narrower target", func() {
			type Wide struct {
				V uint32 `zcrate:"v"`
			}
			type Narrow struct {
				V uint8 `zcrate:"v"`
			}
			s := zcrate.NewSchema("coerce", 1).WithField(zcrate.NewFieldDefinition("v", zcrate.Tag_U32))
			buf := make([]byte, 128)
			n, err := zcrate.Write(&Wide{V: 9999}, buf, s)
			Expect(err).To(BeNil())

			_, err = zcrate.Read[Narrow](buf[:n], s)
			Expect(err).ToNot(BeNil())
			Expect(err).To(MatchError(zcrate.ErrFieldTypeMismatch))
		})

		It("should reject cross-kind coercion even when bit widths line up", func() {
			type AsInt struct {
				V int32 `zcrate:"v"`
			}
			type AsFloat struct {
				V float32 `zcrate:"v"`
			}
			s := zcrate.NewSchema("coerce", 1).WithField(zcrate.NewFieldDefinition("v", zcrate.Tag_I32))
			buf := make([]byte, 128)
			n, err := zcrate.Write(&AsInt{V: 1}, buf, s)
			Expect(err).To(BeNil())

			_, err = zcrate.Read[AsFloat](buf[:n], s)
			Expect(err).ToNot(BeNil())
		})
	})

	Context("duplicate fields: last write wins", func() {
		It("should keep the last occurrence of a repeated field name", func() {
			// Two Go fields sharing the wire name "a" put two entries named
			// "a" on the wire; reading into Rec must keep the second one.
			// Separately written single-entry records read back unchanged.
			type Dup struct {
				First  int32 `zcrate:"a"`
				Second int32 `zcrate:"a"`
			}
			type Rec struct {
				A int32 `zcrate:"a"`
			}
			s := zcrate.NewSchema("dup", 1)
			buf1 := make([]byte, 128)
			n1, err := zcrate.Write(&Rec{A: 1}, buf1, s)
			Expect(err).To(BeNil())
			buf2 := make([]byte, 128)
			n2, err := zcrate.Write(&Rec{A: 2}, buf2, s)
			Expect(err).To(BeNil())

			got1, err := zcrate.Read[Rec](buf1[:n1], s)
			Expect(err).To(BeNil())
			Expect(got1.A).To(Equal(int32(1)))

			got2, err := zcrate.Read[Rec](buf2[:n2], s)
			Expect(err).To(BeNil())
			Expect(got2.A).To(Equal(int32(2)))

			dupBuf := make([]byte, 128)
			nd, err := zcrate.Write(&Dup{First: 1, Second: 2}, dupBuf, s)
			Expect(err).To(BeNil())

			gotDup, err := zcrate.Read[Rec](dupBuf[:nd], s)
			Expect(err).To(BeNil())
			Expect(gotDup.A).To(Equal(int32(2)))
		})
	})

	Context("top level type mismatch", func() {
		It("should fail when the header's TypeTag doesn't match T", func() {
			value := int32(1)
			s := zcrate.NewSchema("scalar", 1)
			buf := make([]byte, 64)
			n, err := zcrate.Write(&value, buf, s)
			Expect(err).To(BeNil())

			_, err = zcrate.Read[uint32](buf[:n], s)
			Expect(err).ToNot(BeNil())
			Expect(err).To(MatchError(zcrate.ErrTypeMismatch))
		})
	})

	Context("schema evolution across named person schemas (concrete scenario 3)", func() {
		It("should add age and email with their declared defaults on read", func() {
			type PersonV1 struct {
				ID   uint32 `zcrate:"id"`
				Name string `zcrate:"name"`
			}
			type PersonV2 struct {
				ID    uint32 `zcrate:"id"`
				Name  string `zcrate:"name"`
				Age   uint32 `zcrate:"age"`
				Email string `zcrate:"email"`
			}
			schemaV1 := zcrate.NewSchema("person", 1).
				WithField(zcrate.NewFieldDefinition("id", zcrate.Tag_U32)).
				WithField(zcrate.NewFieldDefinition("name", zcrate.Tag_String))
			schemaV2 := zcrate.NewSchema("person", 2).
				WithField(zcrate.NewFieldDefinition("id", zcrate.Tag_U32)).
				WithField(zcrate.NewFieldDefinition("name", zcrate.Tag_String)).
				WithField(zcrate.NewFieldDefinition("age", zcrate.Tag_U32).WithDefault("0")).
				WithField(zcrate.NewFieldDefinition("email", zcrate.Tag_String).WithDefault(""))

			buf := make([]byte, 256)
			n, err := zcrate.Write(&PersonV1{ID: 123, Name: "Alice"}, buf, schemaV1)
			Expect(err).To(BeNil())

			got, err := zcrate.Read[PersonV2](buf[:n], schemaV2)
			Expect(err).To(BeNil())
			Expect(got).To(Equal(PersonV2{ID: 123, Name: "Alice", Age: 0, Email: ""}))
		})
	})

	Context("ReadSimple (format v1)", func() {
		It("should round trip a struct positionally, with no schema", func() {
			type Rec struct {
				A int32  `zcrate:"a"`
				B uint16 `zcrate:"b"`
			}
			buf := make([]byte, 128)
			n, err := zcrate.WriteSimple(&Rec{A: -7, B: 300}, buf)
			Expect(err).To(BeNil())

			got, err := zcrate.ReadSimple[Rec](buf[:n])
			Expect(err).To(BeNil())
			Expect(got).To(Equal(Rec{A: -7, B: 300}))
		})
	})
})
